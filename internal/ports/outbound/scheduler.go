package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReconcileScheduler queues properties for a later reconcile pass
type ReconcileScheduler interface {
	// Schedule queues propertyID to be reconciled at the given time.
	// Scheduling an already queued property moves its due time.
	Schedule(ctx context.Context, propertyID uuid.UUID, at time.Time) error
}
