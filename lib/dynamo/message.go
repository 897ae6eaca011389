package dynamo

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/artie-labs/sifter/lib"
)

func stringToFloat64(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// transformAttributeValue converts a DynamoDB AttributeValue to a Go type.
// References: https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/HowItWorks.NamingRulesDataTypes.html
func transformAttributeValue(attr *dynamodb.AttributeValue) (any, error) {
	switch {
	case attr == nil:
		return nil, nil
	case attr.S != nil:
		return *attr.S, nil
	case attr.N != nil:
		number, err := stringToFloat64(*attr.N)
		if err == nil {
			return number, nil
		}

		return nil, fmt.Errorf("failed to convert string to float64: %w", err)
	case attr.BOOL != nil:
		return *attr.BOOL, nil
	case attr.NULL != nil:
		return nil, nil
	case attr.B != nil:
		return attr.B, nil
	case attr.M != nil:
		return TransformImage(attr.M)
	case attr.L != nil:
		list := make([]any, len(attr.L))
		for i, item := range attr.L {
			val, err := transformAttributeValue(item)
			if err != nil {
				return nil, fmt.Errorf("failed to transform attribute value: %w", err)
			}

			list[i] = val
		}

		return list, nil
	case attr.SS != nil:
		strSet := make([]string, len(attr.SS))
		for i, s := range attr.SS {
			strSet[i] = *s
		}

		return strSet, nil
	case attr.NS != nil:
		numSet := make([]float64, len(attr.NS))
		for i, n := range attr.NS {
			number, err := stringToFloat64(*n)
			if err != nil {
				return nil, fmt.Errorf("failed to convert string to float64: %w", err)
			}

			numSet[i] = number
		}

		return numSet, nil
	case attr.BS != nil:
		return attr.BS, nil
	}

	return nil, nil
}

func TransformImage(data map[string]*dynamodb.AttributeValue) (map[string]any, error) {
	transformed := make(map[string]any, len(data))
	for key, attrValue := range data {
		val, err := transformAttributeValue(attrValue)
		if err != nil {
			return nil, fmt.Errorf("failed to transform attribute %q: %w", key, err)
		}

		transformed[key] = val
	}

	return transformed, nil
}

// NewMessageFromItem builds a message from a scanned item. The partition key holds the item's key attributes.
func NewMessageFromItem(item map[string]*dynamodb.AttributeValue, keyAttributes []string, tableName string) (lib.RawMessage, error) {
	if len(item) == 0 {
		return lib.RawMessage{}, fmt.Errorf("item is empty")
	}

	payload, err := TransformImage(item)
	if err != nil {
		return lib.RawMessage{}, err
	}

	primaryKey := make(map[string]any, len(keyAttributes))
	for _, key := range keyAttributes {
		value, isOk := payload[key]
		if !isOk {
			return lib.RawMessage{}, fmt.Errorf("key attribute %q is missing from item", key)
		}
		primaryKey[key] = value
	}

	return lib.NewRawMessage(tableName, primaryKey, payload), nil
}
