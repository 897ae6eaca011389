package lib

// RawMessage is a single row or document read from a source, ready to be published.
type RawMessage struct {
	topicSuffix  string
	partitionKey map[string]any
	payload      map[string]any
}

func NewRawMessage(topicSuffix string, partitionKey map[string]any, payload map[string]any) RawMessage {
	return RawMessage{
		topicSuffix:  topicSuffix,
		partitionKey: partitionKey,
		payload:      payload,
	}
}

func (r RawMessage) TopicSuffix() string {
	return r.topicSuffix
}

func (r RawMessage) PartitionKey() map[string]any {
	return r.partitionKey
}

func (r RawMessage) Payload() map[string]any {
	return r.payload
}
