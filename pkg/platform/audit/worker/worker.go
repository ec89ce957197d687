package worker

import (
	"context"
	"log/slog"

	audit "landregistry/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Case
// lifecycle events are fail-open: a failed append is logged and the worker
// keeps draining so one bad event never stalls the stream.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"case_id", event.CaseID,
					"error", err,
				)
			}
		}
	}
}
