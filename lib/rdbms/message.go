package rdbms

import (
	"fmt"

	"github.com/artie-labs/sifter/lib"
)

// RowsToMessages converts scanned rows into messages keyed by their primary key columns.
func RowsToMessages(topicSuffix string, primaryKeys []string, rows []map[string]any) ([]lib.RawMessage, error) {
	msgs := make([]lib.RawMessage, len(rows))
	for i, row := range rows {
		partitionKey := make(map[string]any, len(primaryKeys))
		for _, key := range primaryKeys {
			value, ok := row[key]
			if !ok {
				return nil, fmt.Errorf("primary key %q is missing from row", key)
			}
			partitionKey[key] = value
		}
		msgs[i] = lib.NewRawMessage(topicSuffix, partitionKey, row)
	}
	return msgs, nil
}
