package sources

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/iterator"
	"github.com/artie-labs/sifter/writers"
)

type Source interface {
	Close() error
	Run(ctx context.Context, writer writers.Writer) (destinations.Report, error)
}

// Snapshot writes every batch of one table or collection.
func Snapshot(ctx context.Context, writer writers.Writer, name string, iter iterator.Iterator[[]lib.RawMessage]) (destinations.Report, error) {
	logger := slog.With(slog.String("table", name))
	snapshotStartTime := time.Now()

	logger.Info("Scanning table...")
	report, err := writer.Write(ctx, iter)
	if err != nil {
		return report, fmt.Errorf("failed to snapshot table %q: %w", name, err)
	}

	logger.Info("Finished snapshotting",
		slog.Int("published", report.Published),
		slog.Int("deadLettered", report.DeadLettered),
		slog.Duration("totalDuration", time.Since(snapshotStartTime)),
	)
	return report, nil
}
