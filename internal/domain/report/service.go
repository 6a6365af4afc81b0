package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/batch"
)

// Service is the generateReport(batchKey) pipeline: resolve the window,
// compose its report and record the generation.
type Service struct {
	batches  BatchFinder
	composer *Composer
	activity ActivityLogger
	logger   *slog.Logger
}

// NewService creates a new report service. audit may be nil.
func NewService(batches BatchFinder, composer *Composer, audit ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{batches: batches, composer: composer, activity: audit, logger: logger}
}

// Generate builds the report of the batch identified by key.
func (s *Service) Generate(ctx context.Context, key batch.Key) (*Tree, error) {
	w, err := s.batches.Find(ctx, key)
	if err != nil {
		return nil, err
	}

	tree, err := s.composer.Compose(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("composing report for batch %d: %w", w.Index, err)
	}

	s.logger.Info("report generated", "batch", key.String(), "report_id", tree.ID, "sections", len(tree.Sections))
	if s.activity != nil {
		s.activity.Record(ctx, &activity.ActivityEntry{
			BatchStart:    key.StartKey(),
			BatchEnd:      key.EndKey(),
			ActivityType:  activity.TypeReportGenerated,
			Summary:       fmt.Sprintf("Report generated for batch %d", w.Index),
			CorrelationID: tree.ID,
		})
	}
	return tree, nil
}

// Chart computes one trend channel of the batch identified by key.
func (s *Service) Chart(ctx context.Context, key batch.Key, channel int) (*chart.Drawing, error) {
	w, err := s.batches.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.composer.Chart(ctx, w, channel)
}
