package config

import (
	"cmp"
	"fmt"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/artie-labs/sifter/constants"
)

type MongoDB struct {
	// Host is a full connection URI, e.g. mongodb+srv://cluster0.example.net
	Host       string `yaml:"host"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	DisableTLS bool   `yaml:"disableTLS,omitempty"`

	Collections []Collection `yaml:"collections"`
}

type Collection struct {
	Name      string `yaml:"name"`
	BatchSize int32  `yaml:"batchSize,omitempty"`
}

func (c Collection) GetBatchSize() int32 {
	return cmp.Or(c.BatchSize, constants.DefaultBatchSize)
}

func (m *MongoDB) Validate() error {
	if m == nil {
		return fmt.Errorf("the MongoDB config is nil")
	}

	if stringutil.Empty(m.Host, m.Database) {
		return fmt.Errorf("one of the MongoDB settings is empty: host, database")
	}

	if len(m.Collections) == 0 {
		return fmt.Errorf("no collections passed in")
	}

	for _, collection := range m.Collections {
		if collection.Name == "" {
			return fmt.Errorf("collection name must be passed in")
		}

		if collection.BatchSize < 0 {
			return fmt.Errorf("batch size cannot be negative for collection %q", collection.Name)
		}
	}

	return nil
}
