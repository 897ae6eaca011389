package constants

const (
	DefaultBatchSize   = 5_000
	DefaultPublishSize = 2_500
	DefaultMaxRetries  = 5
	// DefaultMaxValueBytes caps the original message value stored in a Kafka dead-letter record.
	DefaultMaxValueBytes = 64 * 1024
)
