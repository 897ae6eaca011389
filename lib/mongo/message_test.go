package mongo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseDocumentPartitionKey(t *testing.T) {
	{
		// Primary key as object ID
		objId, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
		assert.NoError(t, err)
		msg, err := ParseDocument(bson.M{"_id": objId}, "db.users")
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"_id": "507f1f77bcf86cd799439011"}, msg.PartitionKey())
		assert.Equal(t, "db.users", msg.TopicSuffix())
	}
	{
		// Primary key as string
		msg, err := ParseDocument(bson.M{"_id": "hello world"}, "db.users")
		assert.NoError(t, err)
		assert.Equal(t, map[string]any{"_id": "hello world"}, msg.PartitionKey())
	}
	{
		// Primary key as ints
		for _, val := range []any{1001, int32(1002), int64(1003)} {
			msg, err := ParseDocument(bson.M{"_id": val}, "db.users")
			assert.NoError(t, err)
			assert.Equal(t, map[string]any{"_id": val}, msg.PartitionKey())
		}
	}
	{
		// Missing _id
		_, err := ParseDocument(bson.M{"name": "no id"}, "db.users")
		assert.ErrorContains(t, err, "failed to get _id from document")
	}
}

func TestParseDocument(t *testing.T) {
	objId, err := primitive.ObjectIDFromHex("507f1f77bcf86cd799439011")
	require.NoError(t, err)

	decimal, err := primitive.ParseDecimal128("1234.5")
	require.NoError(t, err)

	msg, err := ParseDocument(
		bson.M{
			"_id":     objId,
			"string":  "Hello, world!",
			"int32":   int32(42),
			"int64":   int64(3_000_000_000),
			"double":  3.14159,
			"decimal": decimal,
			"subDocument": bson.M{
				"nestedString": "Nested value",
				"nestedId":     objId,
			},
			"orderedDocument": bson.D{{Key: "a", Value: int32(1)}},
			"array":           bson.A{"apple", "banana", objId},
			"timestamp": primitive.Timestamp{
				T: uint32(1707856668),
				I: 123,
			},
			"datetime":  primitive.NewDateTimeFromTime(time.Date(2024, 2, 13, 20, 37, 48, 0, time.UTC)),
			"binary":    primitive.Binary{Data: []byte("abc")},
			"trueValue": true,
			"nullValue": nil,
			"bsonNull":  primitive.Null{},
			"undefined": primitive.Undefined{},
		}, "db.collection")
	require.NoError(t, err)

	expectedMap := map[string]any{
		"_id":     "507f1f77bcf86cd799439011",
		"string":  "Hello, world!",
		"int32":   int32(42),
		"int64":   int64(3000000000),
		"double":  3.14159,
		"decimal": "1234.5",
		"subDocument": map[string]any{
			"nestedString": "Nested value",
			"nestedId":     "507f1f77bcf86cd799439011",
		},
		"orderedDocument": map[string]any{"a": int32(1)},
		"array":           []any{"apple", "banana", "507f1f77bcf86cd799439011"},
		"timestamp":       time.Date(2024, time.February, 13, 20, 37, 48, 0, time.UTC),
		"datetime":        time.Date(2024, time.February, 13, 20, 37, 48, 0, time.UTC),
		"binary":          []byte("abc"),
		"trueValue":       true,
		"nullValue":       nil,
		"bsonNull":        nil,
		"undefined":       nil,
	}
	assert.Equal(t, expectedMap, msg.Payload())

	// Every value should encode to plain JSON.
	bytes, err := json.Marshal(msg.Payload())
	assert.NoError(t, err)
	assert.Contains(t, string(bytes), `"decimal":"1234.5"`)
	assert.Contains(t, string(bytes), `"datetime":"2024-02-13T20:37:48Z"`)
}
