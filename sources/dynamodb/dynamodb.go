package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/sources"
	"github.com/artie-labs/sifter/writers"
)

type Source struct {
	cfg    config.DynamoDB
	client dynamodbiface.DynamoDBAPI
}

func Load(cfg config.DynamoDB) (*Source, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.AwsRegion),
		Credentials: credentials.NewStaticCredentials(cfg.AwsAccessKeyID, cfg.AwsSecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Source{
		cfg:    cfg,
		client: dynamodb.New(sess),
	}, nil
}

func (s *Source) Close() error {
	return nil
}

func (s *Source) Run(ctx context.Context, writer writers.Writer) (destinations.Report, error) {
	return sources.Snapshot(ctx, writer, s.cfg.TableName, newScanIterator(ctx, s.client, s.cfg))
}
