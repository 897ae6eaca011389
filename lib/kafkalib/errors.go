package kafkalib

import (
	"context"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
)

// IsExceedMaxMessageBytesErr returns true when the client or the broker rejected a message for being too large.
// Either way the error does not say which message of the batch was responsible.
func IsExceedMaxMessageBytesErr(err error) bool {
	if err == nil {
		return false
	}

	var tooLargeErr kafka.MessageTooLargeError
	if errors.As(err, &tooLargeErr) || errors.Is(err, kafka.MessageSizeTooLarge) {
		return true
	}

	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, writeErr := range writeErrs {
			if IsExceedMaxMessageBytesErr(writeErr) {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "Message Size Too Large")
}

// IsAuthorizationErr returns true if the writer should be reloaded before retrying.
func IsAuthorizationErr(err error) bool {
	return err != nil && errors.Is(err, kafka.TopicAuthorizationFailed)
}

// isRetryableError returns false for errors that will not go away by publishing the same messages again.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	return !IsExceedMaxMessageBytesErr(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// isMessageErr returns true when a failed write can be blamed on the messages being published rather than on
// the broker or the network. Only these failures are worth bisecting.
func isMessageErr(err error) bool {
	if err == nil || IsAuthorizationErr(err) {
		return false
	}

	if IsExceedMaxMessageBytesErr(err) {
		return true
	}

	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, writeErr := range writeErrs {
			if writeErr != nil && !isMessageErr(writeErr) {
				return false
			}
		}
		return writeErrs.Count() > 0
	}

	var kafkaErr kafka.Error
	return errors.As(err, &kafkaErr) && !kafkaErr.Temporary()
}
