package audit

import (
	"context"
	"errors"
)

// Fanout appends an event to every sink. Used to write the durable journal
// and the Kafka stream from one call site.
type Fanout struct {
	sinks []Store
}

func NewFanout(sinks ...Store) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
