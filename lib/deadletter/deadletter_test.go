package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artie-labs/sifter/config"
)

type fakePublisher struct {
	msgs []kafka.Message
	err  error
}

func (f *fakePublisher) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestNewRecord(t *testing.T) {
	msg := kafka.Message{Topic: "shop.orders", Key: []byte(`{"id":1}`), Value: []byte(`{"total":5}`)}
	{
		record := NewRecord(msg, ReasonPublish, fmt.Errorf("message too large"))
		_, err := uuid.Parse(record.ID)
		assert.NoError(t, err)
		assert.Equal(t, "shop.orders", record.Topic)
		assert.Equal(t, `{"id":1}`, record.Key)
		assert.Equal(t, `{"total":5}`, record.Value)
		assert.Equal(t, ReasonPublish, record.Reason)
		assert.Equal(t, "message too large", record.Error)
		assert.Positive(t, record.ApproxSize)
		assert.False(t, record.FailedAt.IsZero())
	}
	{
		record := NewRecord(msg, ReasonEncode, nil)
		assert.Empty(t, record.Error)
		assert.NotEqual(t, NewRecord(msg, ReasonEncode, nil).ID, record.ID)
	}
}

func TestNew(t *testing.T) {
	{
		sink, err := New(nil, nil)
		assert.NoError(t, err)
		assert.IsType(t, LogSink{}, sink)
	}
	{
		sink, err := New(&config.DeadLetter{Kind: config.DeadLetterFile, Path: "/tmp/dlq.jsonl"}, nil)
		assert.NoError(t, err)
		assert.IsType(t, &FileSink{}, sink)
	}
	{
		_, err := New(&config.DeadLetter{Kind: config.DeadLetterKafka, Topic: "dlq"}, nil)
		assert.ErrorContains(t, err, "kafka dead letter sink requires a publisher")
	}
	{
		sink, err := New(&config.DeadLetter{Kind: config.DeadLetterKafka, Topic: "dlq"}, &fakePublisher{})
		assert.NoError(t, err)
		assert.IsType(t, &KafkaSink{}, sink)
	}
	{
		_, err := New(&config.DeadLetter{Kind: "s3"}, nil)
		assert.ErrorContains(t, err, `unsupported dead letter kind: "s3"`)
	}
}

func TestLogSink(t *testing.T) {
	sink := LogSink{}
	assert.NoError(t, sink.Send(context.Background(), []Record{{ID: "1", Topic: "t"}}))
	assert.NoError(t, sink.Close())
}

func TestFileSink(t *testing.T) {
	fp := filepath.Join(t.TempDir(), "dlq.jsonl")
	{
		// Missing file has no records
		records, err := ReadFile(fp)
		assert.NoError(t, err)
		assert.Empty(t, records)
	}

	sink := NewFileSink(fp)
	require.NoError(t, sink.Send(context.Background(), nil))
	require.NoError(t, sink.Send(context.Background(), []Record{{ID: "1", Topic: "a", Reason: ReasonPublish}}))
	require.NoError(t, sink.Send(context.Background(), []Record{{ID: "2", Topic: "b", Reason: ReasonEncode}, {ID: "3", Topic: "c"}}))
	require.NoError(t, sink.Close())

	records, err := ReadFile(fp)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, ReasonPublish, records[0].Reason)
	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, ReasonEncode, records[1].Reason)
	assert.Equal(t, "c", records[2].Topic)
}

func TestKafkaSink(t *testing.T) {
	{
		publisher := &fakePublisher{}
		sink := NewKafkaSink(publisher, "shop.dlq", 4)
		require.NoError(t, sink.Send(context.Background(), []Record{
			{ID: "1", Topic: "shop.orders", Value: "0123456789", Reason: ReasonPublish},
			{ID: "2", Topic: "shop.orders", Value: "abc", Reason: ReasonEncode},
		}))
		require.Len(t, publisher.msgs, 2)

		first := publisher.msgs[0]
		assert.Equal(t, "shop.dlq", first.Topic)
		assert.Equal(t, "1", string(first.Key))
		assert.Equal(t, []kafka.Header{
			{Key: "reason", Value: []byte("publish")},
			{Key: "sourceTopic", Value: []byte("shop.orders")},
			{Key: "truncated", Value: []byte("true")},
		}, first.Headers)

		var record Record
		require.NoError(t, json.Unmarshal(first.Value, &record))
		assert.Equal(t, "0123", record.Value)

		require.NoError(t, json.Unmarshal(publisher.msgs[1].Value, &record))
		assert.Equal(t, "abc", record.Value)
		assert.Equal(t, []byte("false"), publisher.msgs[1].Headers[2].Value)
	}
	{
		// Multi-byte characters are never split
		publisher := &fakePublisher{}
		sink := NewKafkaSink(publisher, "shop.dlq", 4)
		require.NoError(t, sink.Send(context.Background(), []Record{
			{ID: "1", Topic: "shop.orders", Key: "aééé", Value: "abcéf", Reason: ReasonPublish},
		}))
		require.Len(t, publisher.msgs, 1)
		assert.Equal(t, []byte("true"), publisher.msgs[0].Headers[2].Value)

		var record Record
		require.NoError(t, json.Unmarshal(publisher.msgs[0].Value, &record))
		assert.Equal(t, "abc", record.Value)
		assert.Equal(t, "aé", record.Key)
		assert.True(t, utf8.ValidString(record.Value))
		assert.NotContains(t, string(publisher.msgs[0].Value), string(utf8.RuneError))
	}
	{
		// Nothing to send
		publisher := &fakePublisher{err: fmt.Errorf("should not be called")}
		assert.NoError(t, NewKafkaSink(publisher, "dlq", 10).Send(context.Background(), nil))
	}
	{
		publisher := &fakePublisher{err: fmt.Errorf("broker down")}
		err := NewKafkaSink(publisher, "dlq", 10).Send(context.Background(), []Record{{ID: "1"}})
		assert.ErrorContains(t, err, "failed to publish dead letter records: broker down")
	}
}

func TestTruncate(t *testing.T) {
	type _testCase struct {
		name      string
		value     string
		maxBytes  int
		expected  string
		truncated bool
	}

	testCases := []_testCase{
		{name: "fits", value: "abc", maxBytes: 3, expected: "abc"},
		{name: "ascii", value: "abcdef", maxBytes: 4, expected: "abcd", truncated: true},
		{name: "cut inside a two byte character", value: "héllo", maxBytes: 2, expected: "h", truncated: true},
		{name: "cut after a two byte character", value: "héllo", maxBytes: 3, expected: "hé", truncated: true},
		{name: "cut inside a four byte character", value: "a🙂b", maxBytes: 4, expected: "a", truncated: true},
		{name: "only a partial character fits", value: "🙂", maxBytes: 3, expected: "", truncated: true},
		{name: "zero", value: "abc", maxBytes: 0, expected: "", truncated: true},
	}

	for _, testCase := range testCases {
		actual, truncated := truncate(testCase.value, testCase.maxBytes)
		assert.Equal(t, testCase.expected, actual, testCase.name)
		assert.Equal(t, testCase.truncated, truncated, testCase.name)
		assert.True(t, utf8.ValidString(actual), testCase.name)
	}
}
