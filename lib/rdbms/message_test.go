package rdbms

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowsToMessages(t *testing.T) {
	{
		msgs, err := RowsToMessages("public.orders", []string{"id"}, []map[string]any{
			{"id": 1, "total": 10},
			{"id": 2, "total": 20},
		})
		assert.NoError(t, err)
		assert.Len(t, msgs, 2)
		assert.Equal(t, "public.orders", msgs[0].TopicSuffix())
		assert.Equal(t, map[string]any{"id": 1}, msgs[0].PartitionKey())
		assert.Equal(t, map[string]any{"id": 2, "total": 20}, msgs[1].Payload())
	}
	{
		msgs, err := RowsToMessages("orders", []string{"id"}, nil)
		assert.NoError(t, err)
		assert.Empty(t, msgs)
	}
	{
		_, err := RowsToMessages("orders", []string{"id", "sku"}, []map[string]any{{"id": 1}})
		assert.ErrorContains(t, err, `primary key "sku" is missing from row`)
	}
}
