package approval

import (
	"context"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/batch"
)

// Repository provides persistence for approval records. Create must enforce
// uniqueness of the batch key and report violations as
// repository.ErrConflict.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	// Approve sets the approval fields only where none are set yet and
	// reports whether a row changed.
	Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (bool, error)
	Get(ctx context.Context, key batch.Key) (*Record, error)
	List(ctx context.Context) ([]Record, error)
}

// ActivityLogger records audit entries for approval transitions.
type ActivityLogger interface {
	Record(ctx context.Context, entry *activity.ActivityEntry)
}
