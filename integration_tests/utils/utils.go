package utils

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/bisect"
	"github.com/artie-labs/sifter/lib/logger"
)

func TempTableName() string {
	return fmt.Sprintf("sifter_%d", 10_000+rand.Int32N(10_000))
}

func CreateTemporaryTable(db *sql.DB, query string) (string, func()) {
	tempTableName := TempTableName()
	slog.Info("Creating temporary table...", slog.String("table", tempTableName))
	if _, err := db.Exec(fmt.Sprintf(query, tempTableName)); err != nil {
		logger.Fatal("Unable to create temporary table", slog.Any("err", err))
	}

	return tempTableName, func() {
		slog.Info("Dropping temporary table...", slog.String("table", tempTableName))
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE %s", tempTableName)); err != nil {
			slog.Error("Failed to drop table", slog.Any("err", err))
		}
	}
}

// SizeLimitedDestination rejects any batch holding a message whose payload encodes to more than
// maxBytes, the way a broker rejects an oversized request. Rejected batches are bisected.
type SizeLimitedDestination struct {
	maxBytes int

	Published    []lib.RawMessage
	DeadLettered []lib.RawMessage
}

func NewSizeLimitedDestination(maxBytes int) *SizeLimitedDestination {
	return &SizeLimitedDestination{maxBytes: maxBytes}
}

func (s *SizeLimitedDestination) write(batch []lib.RawMessage) error {
	for _, msg := range batch {
		bytes, err := json.Marshal(msg.Payload())
		if err != nil {
			return err
		}

		if len(bytes) > s.maxBytes {
			return fmt.Errorf("message is %d bytes, limit is %d", len(bytes), s.maxBytes)
		}
	}
	return nil
}

func (s *SizeLimitedDestination) WriteRawMessages(_ context.Context, msgs []lib.RawMessage) (destinations.Report, error) {
	bad, good := bisect.Resolve(msgs, s.write)
	s.Published = append(s.Published, good...)
	s.DeadLettered = append(s.DeadLettered, bad...)
	return destinations.Report{Published: len(good), DeadLettered: len(bad)}, nil
}

func (s *SizeLimitedDestination) OnFinish() error {
	return nil
}

// Keys returns the value of column for each message, sorted.
func Keys(msgs []lib.RawMessage, column string) []int64 {
	var keys []int64
	for _, msg := range msgs {
		switch value := msg.PartitionKey()[column].(type) {
		case int64:
			keys = append(keys, value)
		case int32:
			keys = append(keys, int64(value))
		case int:
			keys = append(keys, int64(value))
		}
	}
	slices.Sort(keys)
	return keys
}
