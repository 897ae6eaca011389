package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/dynamo"
)

// scanIterator pages through a table with Scan, one page per batch.
type scanIterator struct {
	ctx    context.Context
	client dynamodbiface.DynamoDBAPI
	cfg    config.DynamoDB

	// mutable
	lastEvaluatedKey map[string]*dynamodb.AttributeValue
	done             bool
}

func newScanIterator(ctx context.Context, client dynamodbiface.DynamoDBAPI, cfg config.DynamoDB) *scanIterator {
	return &scanIterator{
		ctx:    ctx,
		client: client,
		cfg:    cfg,
	}
}

func (s *scanIterator) HasNext() bool {
	return !s.done
}

func (s *scanIterator) Next() ([]lib.RawMessage, error) {
	if !s.HasNext() {
		return nil, fmt.Errorf("no more items to scan")
	}

	output, err := s.client.ScanWithContext(s.ctx, &dynamodb.ScanInput{
		TableName:         aws.String(s.cfg.TableName),
		Limit:             aws.Int64(s.cfg.GetBatchSize()),
		ExclusiveStartKey: s.lastEvaluatedKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan table %q: %w", s.cfg.TableName, err)
	}

	msgs := make([]lib.RawMessage, 0, len(output.Items))
	for _, item := range output.Items {
		msg, err := dynamo.NewMessageFromItem(item, s.cfg.KeyAttributes, s.cfg.TableName)
		if err != nil {
			return nil, fmt.Errorf("failed to cast message from DynamoDB: %w", err)
		}
		msgs = append(msgs, msg)
	}

	s.lastEvaluatedKey = output.LastEvaluatedKey
	if len(output.LastEvaluatedKey) == 0 {
		s.done = true
	}

	return msgs, nil
}
