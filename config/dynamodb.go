package config

import (
	"cmp"
	"fmt"

	"github.com/artie-labs/transfer/lib/stringutil"

	"github.com/artie-labs/sifter/constants"
)

type DynamoDB struct {
	AwsRegion          string `yaml:"awsRegion"`
	AwsAccessKeyID     string `yaml:"awsAccessKeyId"`
	AwsSecretAccessKey string `yaml:"awsSecretAccessKey"`
	TableName          string `yaml:"tableName"`
	// KeyAttributes are the partition key and optional sort key of the table.
	KeyAttributes []string `yaml:"keyAttributes"`
	BatchSize     int64    `yaml:"batchSize,omitempty"`
}

func (d *DynamoDB) GetBatchSize() int64 {
	return cmp.Or(d.BatchSize, constants.DefaultBatchSize)
}

func (d *DynamoDB) Validate() error {
	if d == nil {
		return fmt.Errorf("dynamodb config is nil")
	}

	if stringutil.Empty(d.AwsRegion, d.AwsAccessKeyID, d.AwsSecretAccessKey, d.TableName) {
		return fmt.Errorf("one of the dynamoDB configs is empty: awsRegion, awsAccessKeyID, awsSecretAccessKey or tableName")
	}

	if len(d.KeyAttributes) == 0 || len(d.KeyAttributes) > 2 {
		return fmt.Errorf("keyAttributes must contain a partition key and at most one sort key")
	}

	return nil
}
