package kafkalib

import (
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/artie-labs/sifter/lib"
)

func Topic(topicPrefix string, rawMessage lib.RawMessage) string {
	if topicPrefix == "" {
		return rawMessage.TopicSuffix()
	}
	return fmt.Sprintf("%s.%s", topicPrefix, rawMessage.TopicSuffix())
}

func BuildMessage(topicPrefix string, rawMessage lib.RawMessage) (kafka.Message, error) {
	keyBytes, err := json.Marshal(rawMessage.PartitionKey())
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal partition key: %w", err)
	}

	valueBytes, err := json.Marshal(rawMessage.Payload())
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return kafka.Message{
		Topic: Topic(topicPrefix, rawMessage),
		Key:   keyBytes,
		Value: valueBytes,
	}, nil
}
