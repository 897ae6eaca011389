package deadletter

import (
	"context"
	"log/slog"
)

type LogSink struct{}

func (LogSink) Send(_ context.Context, records []Record) error {
	for _, record := range records {
		slog.Warn("Dead lettered message",
			slog.String("id", record.ID),
			slog.String("topic", record.Topic),
			slog.String("key", record.Key),
			slog.String("reason", string(record.Reason)),
			slog.String("err", record.Error),
			slog.Int("approxSize", record.ApproxSize),
		)
	}
	return nil
}

func (LogSink) Close() error {
	return nil
}
