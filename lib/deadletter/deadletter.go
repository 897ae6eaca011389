// Package deadletter stores the messages that were isolated as individually unpublishable.
package deadletter

import (
	"context"
	"fmt"
	"time"

	"github.com/artie-labs/transfer/lib/size"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/sifter/config"
)

type Reason string

const (
	// ReasonEncode is used when a row could not be encoded into a Kafka message.
	ReasonEncode Reason = "encode"
	// ReasonPublish is used when a message failed to publish on its own.
	ReasonPublish Reason = "publish"
)

type Record struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Reason     Reason    `json:"reason"`
	Error      string    `json:"error,omitempty"`
	ApproxSize int       `json:"approxSize"`
	FailedAt   time.Time `json:"failedAt"`
}

func NewRecord(msg kafka.Message, reason Reason, err error) Record {
	record := Record{
		ID:         uuid.NewString(),
		Topic:      msg.Topic,
		Key:        string(msg.Key),
		Value:      string(msg.Value),
		Reason:     reason,
		ApproxSize: size.GetApproxSize(msg.Value),
		FailedAt:   time.Now().UTC(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	return record
}

type Sink interface {
	Send(ctx context.Context, records []Record) error
	Close() error
}

// New returns the sink described by cfg. Publisher is only used by the Kafka sink.
func New(cfg *config.DeadLetter, publisher Publisher) (Sink, error) {
	switch cfg.GetKind() {
	case config.DeadLetterLog:
		return LogSink{}, nil
	case config.DeadLetterFile:
		return NewFileSink(cfg.Path), nil
	case config.DeadLetterKafka:
		if publisher == nil {
			return nil, fmt.Errorf("kafka dead letter sink requires a publisher")
		}
		return NewKafkaSink(publisher, cfg.Topic, cfg.GetMaxValueBytes()), nil
	default:
		return nil, fmt.Errorf("unsupported dead letter kind: %q", cfg.GetKind())
	}
}
