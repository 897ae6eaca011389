package writers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/iterator"
)

type Writer struct {
	destination destinations.Destination
	logProgress bool
}

func New(destination destinations.Destination, logProgress bool) Writer {
	return Writer{destination: destination, logProgress: logProgress}
}

// Write writes all the messages from an iterator to the destination.
func (w *Writer) Write(ctx context.Context, iter iterator.Iterator[[]lib.RawMessage]) (destinations.Report, error) {
	start := time.Now()
	var report destinations.Report
	for iter.HasNext() {
		iterStart := time.Now()
		msgs, err := iter.Next()
		if err != nil {
			return report, fmt.Errorf("failed to iterate over messages: %w", err)
		}

		if len(msgs) == 0 {
			continue
		}

		batchReport, err := w.destination.WriteRawMessages(ctx, msgs)
		report = report.Add(batchReport)
		if err != nil {
			return report, fmt.Errorf("failed to write messages: %w", err)
		}

		if w.logProgress {
			slog.Info("Write progress",
				slog.Int("totalPublished", report.Published),
				slog.Int("totalDeadLettered", report.DeadLettered),
				slog.Duration("totalDuration", time.Since(start)),
				slog.Int("batchSize", len(msgs)),
				slog.Duration("batchDuration", time.Since(iterStart)),
			)
		}
	}

	return report, nil
}

func (w *Writer) OnFinish() error {
	if err := w.destination.OnFinish(); err != nil {
		return fmt.Errorf("failed running destination OnFinish: %w", err)
	}

	return nil
}
