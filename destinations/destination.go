package destinations

import (
	"context"

	"github.com/artie-labs/sifter/lib"
)

// Report counts what happened to the messages handed to a [Destination].
type Report struct {
	Published    int
	DeadLettered int
}

func (r Report) Add(other Report) Report {
	return Report{
		Published:    r.Published + other.Published,
		DeadLettered: r.DeadLettered + other.DeadLettered,
	}
}

func (r Report) Total() int {
	return r.Published + r.DeadLettered
}

type Destination interface {
	WriteRawMessages(ctx context.Context, rawMsgs []lib.RawMessage) (Report, error)
	OnFinish() error
}
