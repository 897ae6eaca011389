package kafkalib

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/artie-labs/transfer/lib/size"
	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/sifter/config"
	"github.com/artie-labs/sifter/destinations"
	"github.com/artie-labs/sifter/lib"
	"github.com/artie-labs/sifter/lib/bisect"
	"github.com/artie-labs/sifter/lib/deadletter"
	"github.com/artie-labs/sifter/lib/iterator"
	"github.com/artie-labs/sifter/lib/mtr"
	"github.com/artie-labs/sifter/lib/utils"
)

const (
	baseJitterMs = 300
	maxJitterMs  = 5000
)

type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type ReloadFunc func(ctx context.Context) (Publisher, error)

// BatchWriter publishes messages in chunks. A chunk that still fails after retries, with an error caused by
// its messages, is bisected to find the messages that cannot be published on their own. Those are sent to the dead-letter sink
// and the rest are published.
//
// Isolation publishes sub-chunks of a chunk that already failed, so a message may be delivered
// more than once if the broker accepted part of a failed write.
type BatchWriter struct {
	cfg        config.Kafka
	bisectCfg  *config.Bisect
	deadLetter deadletter.Sink
	statsD     mtr.Client
	reload     ReloadFunc

	mu        sync.RWMutex
	publisher Publisher
}

func NewBatchWriter(ctx context.Context, cfg config.Kafka, bisectCfg *config.Bisect, deadLetter deadletter.Sink, statsD mtr.Client) (*BatchWriter, error) {
	reload := func(ctx context.Context) (Publisher, error) {
		return NewWriter(ctx, cfg)
	}

	publisher, err := reload(ctx)
	if err != nil {
		return nil, err
	}

	return newBatchWriter(cfg, bisectCfg, publisher, reload, deadLetter, statsD), nil
}

func newBatchWriter(cfg config.Kafka, bisectCfg *config.Bisect, publisher Publisher, reload ReloadFunc, deadLetter deadletter.Sink, statsD mtr.Client) *BatchWriter {
	return &BatchWriter{
		cfg:        cfg,
		bisectCfg:  bisectCfg,
		deadLetter: deadLetter,
		statsD:     statsD,
		reload:     reload,
		publisher:  publisher,
	}
}

func (w *BatchWriter) currentPublisher() Publisher {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.publisher
}

func (w *BatchWriter) reloadPublisher(ctx context.Context, stale Publisher) error {
	if w.reload == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.publisher != stale {
		// Another goroutine already reloaded it.
		return nil
	}

	if err := w.publisher.Close(); err != nil {
		slog.Warn("Failed to close kafka writer", slog.Any("err", err))
	}

	publisher, err := w.reload(ctx)
	if err != nil {
		return err
	}

	w.publisher = publisher
	return nil
}

func (w *BatchWriter) count(name string, value int64, tags map[string]string) {
	if w.statsD != nil && value > 0 {
		w.statsD.Count(name, value, tags)
	}
}

// publish writes msgs with jittered retries. Errors that cannot be fixed by retrying, such as a message being too large, are returned right away.
func (w *BatchWriter) publish(ctx context.Context, msgs []kafka.Message) error {
	var lastErr error
	_, err := utils.WithJitteredRetries(ctx, baseJitterMs, maxJitterMs, w.cfg.GetMaxRetries(), isRetryableError, func(_ int) (struct{}, error) {
		publisher := w.currentPublisher()
		if IsAuthorizationErr(lastErr) {
			if reloadErr := w.reloadPublisher(ctx, publisher); reloadErr != nil {
				slog.Warn("Failed to reload kafka writer", slog.Any("err", reloadErr))
			}
			publisher = w.currentPublisher()
		}

		lastErr = publisher.WriteMessages(ctx, msgs...)
		return struct{}{}, lastErr
	})
	return err
}

type buildResult struct {
	msgs    []kafka.Message
	records []deadletter.Record
}

func buildKafkaMessages(topicPrefix string, rawMsgs []lib.RawMessage) buildResult {
	var result buildResult
	result.msgs = make([]kafka.Message, 0, len(rawMsgs))
	for _, rawMsg := range rawMsgs {
		msg, err := BuildMessage(topicPrefix, rawMsg)
		if err != nil {
			result.records = append(result.records, deadletter.NewRecord(kafka.Message{Topic: Topic(topicPrefix, rawMsg)}, deadletter.ReasonEncode, err))
			continue
		}
		result.msgs = append(result.msgs, msg)
	}
	return result
}

func (w *BatchWriter) sendToDeadLetter(ctx context.Context, records []deadletter.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := w.deadLetter.Send(ctx, records); err != nil {
		return fmt.Errorf("failed to send %d records to dead letter sink: %w", len(records), err)
	}

	w.count("kafka.publish", int64(len(records)), map[string]string{"what": "dead_letter"})
	return nil
}

func (w *BatchWriter) WriteRawMessages(ctx context.Context, rawMsgs []lib.RawMessage) (destinations.Report, error) {
	var report destinations.Report
	if len(rawMsgs) == 0 {
		return report, nil
	}

	built := buildKafkaMessages(w.cfg.TopicPrefix, rawMsgs)
	if err := w.sendToDeadLetter(ctx, built.records); err != nil {
		return report, err
	}
	report.DeadLettered += len(built.records)

	for _, chunk := range iterator.Chunk(built.msgs, int(w.cfg.GetPublishSize())) {
		chunkReport, err := w.writeChunk(ctx, chunk)
		report = report.Add(chunkReport)
		if err != nil {
			return report, err
		}
	}

	return report, nil
}

func (w *BatchWriter) writeChunk(ctx context.Context, chunk []kafka.Message) (destinations.Report, error) {
	err := w.publish(ctx, chunk)
	if err == nil {
		w.count("kafka.publish", int64(len(chunk)), map[string]string{"what": "success"})
		return destinations.Report{Published: len(chunk)}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return destinations.Report{}, ctxErr
	}

	// Only failures caused by the messages themselves are bisected.
	if !w.bisectCfg.Enabled() || !isMessageErr(err) {
		w.count("kafka.publish", int64(len(chunk)), map[string]string{"what": "error"})
		return destinations.Report{}, fmt.Errorf("failed to write message: %w, approxSize: %d", err, size.GetApproxSize(chunk))
	}

	slog.Warn("Failed to publish chunk, isolating the messages that cannot be published",
		slog.Any("err", err),
		slog.Int("chunkSize", len(chunk)),
		slog.Bool("messageTooLarge", IsExceedMaxMessageBytesErr(err)),
	)
	return w.isolate(ctx, chunk, err)
}

// pendingMessage remembers the error from the last time it was published on its own.
type pendingMessage struct {
	msg     kafka.Message
	lastErr error
}

func (w *BatchWriter) resolve(ctx context.Context, pending []*pendingMessage, action bisect.Action[*pendingMessage]) (bisect.Result[*pendingMessage], error) {
	if concurrency := w.bisectCfg.GetConcurrency(); concurrency > 1 {
		return bisect.ResolveConcurrently(ctx, pending, action, concurrency)
	}

	result := bisect.ResolveWithStats(pending, action)
	return result, ctx.Err()
}

// isolate bisects a chunk that failed with chunkErr. The whole chunk is not published again: isolation starts from its two halves.
func (w *BatchWriter) isolate(ctx context.Context, chunk []kafka.Message, chunkErr error) (destinations.Report, error) {
	pending := make([]*pendingMessage, len(chunk))
	for i, msg := range chunk {
		pending[i] = &pendingMessage{msg: msg}
	}

	action := func(batch []*pendingMessage) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		msgs := make([]kafka.Message, len(batch))
		for i, p := range batch {
			msgs[i] = p.msg
		}

		err := w.publish(ctx, msgs)
		if err != nil && len(batch) == 1 {
			batch[0].lastErr = err
		}
		return err
	}

	var result bisect.Result[*pendingMessage]
	if len(pending) == 1 {
		pending[0].lastErr = chunkErr
		result.Bad = pending
	} else {
		result.Splits++
		left, right := bisect.Split(pending)
		for _, half := range [][]*pendingMessage{left, right} {
			halfResult, err := w.resolve(ctx, half, action)
			result.Bad = append(result.Bad, halfResult.Bad...)
			result.Good = append(result.Good, halfResult.Good...)
			result.Calls += halfResult.Calls
			result.Splits += halfResult.Splits
			if err != nil {
				return destinations.Report{Published: len(result.Good)}, fmt.Errorf("failed to isolate messages: %w", err)
			}
		}
	}

	w.count("bisect.calls", int64(result.Calls), nil)
	w.count("bisect.splits", int64(result.Splits), nil)
	w.count("kafka.publish", int64(len(result.Good)), map[string]string{"what": "success"})

	records := make([]deadletter.Record, len(result.Bad))
	for i, p := range result.Bad {
		records[i] = deadletter.NewRecord(p.msg, deadletter.ReasonPublish, p.lastErr)
	}

	slog.Info("Finished isolating messages",
		slog.Int("published", len(result.Good)),
		slog.Int("deadLettered", len(result.Bad)),
		slog.Int("calls", result.Calls),
		slog.Int("splits", result.Splits),
	)

	report := destinations.Report{Published: len(result.Good)}
	if err := w.sendToDeadLetter(ctx, records); err != nil {
		return report, err
	}

	report.DeadLettered = len(records)
	return report, nil
}

func (w *BatchWriter) OnFinish() error {
	if w.statsD != nil {
		w.statsD.Flush()
	}

	return w.currentPublisher().Close()
}
