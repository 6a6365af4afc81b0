package report

import (
	"context"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/domain/batchdata"
)

// BatchFinder resolves a batch key to its reconstructed window.
type BatchFinder interface {
	Find(ctx context.Context, key batch.Key) (batch.Window, error)
}

// DataFetcher joins the log stores over a window.
type DataFetcher interface {
	Fetch(ctx context.Context, w batch.Window) (*batchdata.BatchData, error)
}

// ApprovalReader reads the approval record of a batch.
type ApprovalReader interface {
	Get(ctx context.Context, key batch.Key) (*approval.Record, error)
}

// ActivityLogger records audit entries.
type ActivityLogger interface {
	Record(ctx context.Context, entry *activity.ActivityEntry)
}
