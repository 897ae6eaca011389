package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/iterator"
	mongoLib "github.com/artie-labs/sifter/lib/mongo"
)

// cursor is the part of [mongo.Cursor] the document iterator reads from.
type cursor interface {
	Next(ctx context.Context) bool
	Decode(val any) error
	Err() error
	Close(ctx context.Context) error
}

// documentIterator yields one message per document. The cursor is opened lazily and closed once it is exhausted.
type documentIterator struct {
	ctx         context.Context
	topicSuffix string
	open        func(ctx context.Context) (cursor, error)

	// mutable
	cursor  cursor
	pending bool
	err     error
	done    bool
}

func newDocumentIterator(ctx context.Context, coll *mongo.Collection, collection config.Collection, database string) *documentIterator {
	return &documentIterator{
		ctx:         ctx,
		topicSuffix: fmt.Sprintf("%s.%s", database, collection.Name),
		open: func(ctx context.Context) (cursor, error) {
			findOptions := options.Find().SetBatchSize(collection.GetBatchSize()).SetSort(bson.D{{Key: "_id", Value: 1}})
			return coll.Find(ctx, bson.D{}, findOptions)
		},
	}
}

// newSnapshotIterator groups the documents of a collection into batches of the collection's batch size.
func newSnapshotIterator(docs *documentIterator, batchSize int32) iterator.Iterator[[]lib.RawMessage] {
	return iterator.Batch[lib.RawMessage](docs, int(batchSize))
}

// HasNext advances the cursor so that an exhausted collection never yields an empty batch.
// Errors are held back and returned by the next call to [documentIterator.Next].
func (d *documentIterator) HasNext() bool {
	if d.done {
		return false
	}

	if d.pending || d.err != nil {
		return true
	}

	if d.cursor == nil {
		cursor, err := d.open(d.ctx)
		if err != nil {
			d.err = fmt.Errorf("failed to find documents: %w", err)
			return true
		}
		d.cursor = cursor
	}

	if d.cursor.Next(d.ctx) {
		d.pending = true
		return true
	}

	if err := d.cursor.Err(); err != nil {
		d.err = fmt.Errorf("failed to iterate over documents: %w", err)
		return true
	}

	d.done = true
	d.close()
	return false
}

func (d *documentIterator) Next() (lib.RawMessage, error) {
	if !d.HasNext() {
		return lib.RawMessage{}, fmt.Errorf("no more documents to scan")
	}

	if d.err != nil {
		err := d.err
		d.done = true
		d.close()
		return lib.RawMessage{}, err
	}

	d.pending = false
	var result bson.M
	if err := d.cursor.Decode(&result); err != nil {
		return lib.RawMessage{}, fmt.Errorf("failed to decode document: %w", err)
	}

	rawMsg, err := mongoLib.ParseDocument(result, d.topicSuffix)
	if err != nil {
		return lib.RawMessage{}, fmt.Errorf("failed to parse document: %w", err)
	}

	return rawMsg, nil
}

func (d *documentIterator) close() {
	if d.cursor == nil {
		return
	}

	if err := d.cursor.Close(context.Background()); err != nil {
		slog.Warn("Failed to close cursor", slog.Any("err", err))
	}
	d.cursor = nil
}
