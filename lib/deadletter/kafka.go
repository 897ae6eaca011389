package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes records to a dead-letter topic. The original key and value are each truncated
// to maxValueBytes so that the record itself fits within the broker's limits.
type KafkaSink struct {
	publisher     Publisher
	topic         string
	maxValueBytes int
}

func NewKafkaSink(publisher Publisher, topic string, maxValueBytes int) *KafkaSink {
	return &KafkaSink{
		publisher:     publisher,
		topic:         topic,
		maxValueBytes: maxValueBytes,
	}
}

// truncate cuts value to at most maxBytes without splitting a UTF-8 character.
func truncate(value string, maxBytes int) (string, bool) {
	if len(value) <= maxBytes {
		return value, false
	}

	cut := max(maxBytes, 0)
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut], true
}

func (k *KafkaSink) buildMessage(record Record) (kafka.Message, error) {
	var keyTruncated, valueTruncated bool
	record.Key, keyTruncated = truncate(record.Key, k.maxValueBytes)
	record.Value, valueTruncated = truncate(record.Value, k.maxValueBytes)
	truncated := keyTruncated || valueTruncated

	value, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	return kafka.Message{
		Topic: k.topic,
		Key:   []byte(record.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "reason", Value: []byte(record.Reason)},
			{Key: "sourceTopic", Value: []byte(record.Topic)},
			{Key: "truncated", Value: []byte(fmt.Sprint(truncated))},
		},
	}, nil
}

func (k *KafkaSink) Send(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, len(records))
	for i, record := range records {
		msg, err := k.buildMessage(record)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := k.publisher.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish dead letter records: %w", err)
	}

	return nil
}

// Close is a no-op, the publisher is owned by the caller.
func (k *KafkaSink) Close() error {
	return nil
}
