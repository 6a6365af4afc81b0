package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/internal/timecodec"
)

// Service reconstructs batch windows from the security log. Windows are
// recomputed on every call and never persisted.
type Service struct {
	log        repository.SecurityLogStore
	codec      timecodec.Codec
	classifier Classifier
	logger     *slog.Logger
}

// NewService creates a new batch service.
func NewService(log repository.SecurityLogStore, codec timecodec.Codec, classifier Classifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{log: log, codec: codec, classifier: classifier, logger: logger}
}

// Events loads and classifies marker rows, newest first. Rows with an
// unparseable date or time are skipped.
func (s *Service) Events(ctx context.Context) ([]LogEvent, error) {
	rows, err := s.log.QueryMarkers(ctx, s.classifier.Markers(), repository.Descending)
	if err != nil {
		if errors.Is(err, repository.ErrStoreAbsent) {
			return nil, fmt.Errorf("%w: %v", ErrSecurityLogUnavailable, err)
		}
		return nil, fmt.Errorf("querying markers: %w", err)
	}

	events := make([]LogEvent, 0, len(rows))
	for _, row := range rows {
		ts, err := s.codec.Decode(row.Date, row.Time)
		if err != nil {
			s.logger.Debug("skipping security log row", "date", row.Date, "time", row.Time, "error", err)
			continue
		}
		isStart, isEnd := s.classifier.Classify(row.Message)
		if !isStart && !isEnd {
			continue
		}
		events = append(events, LogEvent{Timestamp: ts, IsStart: isStart, IsEnd: isEnd})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return events, nil
}

// Reconstruct runs a full reconstruction pass and logs dropped markers.
func (s *Service) Reconstruct(ctx context.Context) (Result, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return Result{}, err
	}

	res := Reconstruct(events)
	for _, d := range res.Diagnostics {
		if d.Kind == DiagnosticDanglingEnd {
			s.logger.Warn("dropped dangling batch end marker", "at", d.At.Format(DisplayLayout))
			continue
		}
		s.logger.Debug("ignored batch marker", "kind", d.Kind, "at", d.At.Format(DisplayLayout))
	}
	s.logger.Debug("reconstructed batches", "events", len(events), "windows", len(res.Windows))
	return res, nil
}

// List returns all complete windows in chronological order.
func (s *Service) List(ctx context.Context) ([]Window, error) {
	res, err := s.Reconstruct(ctx)
	if err != nil {
		return nil, err
	}
	return res.Windows, nil
}

// Find returns the window matching key at millisecond precision.
func (s *Service) Find(ctx context.Context, key Key) (Window, error) {
	if err := key.Validate(); err != nil {
		return Window{}, err
	}
	windows, err := s.List(ctx)
	if err != nil {
		return Window{}, err
	}
	start, end := key.StartKey(), key.EndKey()
	for _, w := range windows {
		if w.Key().StartKey() == start && w.Key().EndKey() == end {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("%w: %s", ErrBatchNotFound, key)
}

// Summary renders windows as an operator-facing listing.
func Summary(windows []Window) string {
	var b strings.Builder
	for _, w := range windows {
		fmt.Fprintf(&b, "Batch %d\nStart: %s\nEnd:   %s\n\n", w.Index, w.Start.Format(DisplayLayout), w.End.Format(DisplayLayout))
	}
	return b.String()
}
