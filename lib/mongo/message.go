package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/artie-labs/sifter/lib"
)

// ParseDocument converts a document into a message keyed by its _id.
func ParseDocument(doc bson.M, topicSuffix string) (lib.RawMessage, error) {
	if _, isOk := doc["_id"]; !isOk {
		return lib.RawMessage{}, fmt.Errorf("failed to get _id from document")
	}

	payload := make(map[string]any, len(doc))
	for key, value := range doc {
		payload[key] = normalize(value)
	}

	return lib.NewRawMessage(topicSuffix, map[string]any{"_id": payload["_id"]}, payload), nil
}

// normalize turns BSON specific types into values that encode to plain JSON.
func normalize(value any) any {
	switch castedValue := value.(type) {
	case primitive.ObjectID:
		return castedValue.Hex()
	case primitive.DateTime:
		return castedValue.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(castedValue.T), 0).UTC()
	case primitive.Decimal128:
		return castedValue.String()
	case primitive.Binary:
		return castedValue.Data
	case primitive.Null, primitive.Undefined:
		return nil
	case primitive.M:
		out := make(map[string]any, len(castedValue))
		for key, nested := range castedValue {
			out[key] = normalize(nested)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(castedValue))
		for _, elem := range castedValue {
			out[elem.Key] = normalize(elem.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(castedValue))
		for i, nested := range castedValue {
			out[i] = normalize(nested)
		}
		return out
	case []any:
		out := make([]any, len(castedValue))
		for i, nested := range castedValue {
			out[i] = normalize(nested)
		}
		return out
	default:
		return value
	}
}
