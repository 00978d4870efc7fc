package ports

import (
	"context"

	"github.com/grocerypos/accounts/internal/core/domain"
)

// ActivityRecorder accepts audit events without blocking the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, event domain.ActivityEvent)
}

// ActivitySink durably stores audit events.
type ActivitySink interface {
	InsertActivity(ctx context.Context, event domain.ActivityEvent) error
}

// NopActivityRecorder discards every event.
type NopActivityRecorder struct{}

func (NopActivityRecorder) Record(context.Context, domain.ActivityEvent) {}
