package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/destinations"
	mongoLib "github.com/artie-labs/sifter/lib/mongo"
	"github.com/artie-labs/sifter/sources"
	"github.com/artie-labs/sifter/writers"
)

type Source struct {
	cfg    config.MongoDB
	client *mongo.Client
	db     *mongo.Database
}

func Load(ctx context.Context, cfg config.MongoDB) (*Source, error) {
	client, err := mongo.Connect(ctx, mongoLib.OptsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Source{
		cfg:    cfg,
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

func (s *Source) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Source) Run(ctx context.Context, writer writers.Writer) (destinations.Report, error) {
	var report destinations.Report
	for _, collection := range s.cfg.Collections {
		docs := newDocumentIterator(ctx, s.db.Collection(collection.Name), collection, s.cfg.Database)
		collectionReport, err := sources.Snapshot(ctx, writer, collection.Name, newSnapshotIterator(docs, collection.GetBatchSize()))
		docs.close()

		report = report.Add(collectionReport)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}
