package approval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/repository"
)

// Service runs the request/approve workflow. The store's uniqueness
// constraint and conditional update are the only concurrency control.
type Service struct {
	repo     Repository
	activity ActivityLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new approval service. audit may be nil.
func NewService(repo Repository, audit ActivityLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, activity: audit, logger: logger, now: time.Now}
}

// Request records an approval request for a batch. It fails with
// ErrDuplicateRequest when the batch was already requested.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Record, error) {
	if err := ValidateRequest(in); err != nil {
		return nil, err
	}

	requestedAt := in.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = s.now()
	}

	rec := &Record{
		BatchStart:  in.Batch.Start,
		BatchEnd:    in.Batch.End,
		RequestedBy: strings.TrimSpace(in.RequestedBy),
		RequestedAt: requestedAt,
		Checklist:   in.Checklist,
	}
	for i := range rec.Checklist {
		rec.Checklist[i].Reason = strings.TrimSpace(rec.Checklist[i].Reason)
		if !rec.Checklist[i].Checked {
			rec.Checklist[i].Reason = ""
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRequest, in.Batch)
		}
		return nil, fmt.Errorf("creating approval request: %w", err)
	}

	s.logger.Info("approval requested", "batch", in.Batch.String(), "requested_by", rec.RequestedBy)
	s.record(ctx, in.Batch, rec.RequestedBy, activity.TypeApprovalRequested, "Approval requested")
	return rec, nil
}

// Approve marks a requested batch approved. Approving a batch that was never
// requested or is already approved is reported as OutcomeNothingToApprove.
func (s *Service) Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (Outcome, error) {
	if err := key.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if at.IsZero() {
		at = s.now()
	}
	approver = strings.TrimSpace(approver)

	changed, err := s.repo.Approve(ctx, key, approver, at)
	if err != nil {
		return "", fmt.Errorf("approving batch: %w", err)
	}
	if !changed {
		s.logger.Info("nothing to approve", "batch", key.String())
		return OutcomeNothingToApprove, nil
	}

	s.logger.Info("batch approved", "batch", key.String(), "approved_by", approver)
	s.record(ctx, key, approver, activity.TypeBatchApproved, "Batch approved")
	return OutcomeApproved, nil
}

// Get returns the approval record of a batch.
func (s *Service) Get(ctx context.Context, key batch.Key) (*Record, error) {
	rec, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStoreAbsent) {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("getting approval: %w", err)
	}
	return rec, nil
}

// State returns the lifecycle state of a batch.
func (s *Service) State(ctx context.Context, key batch.Key) (State, error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrApprovalNotFound) {
			return StateNone, nil
		}
		return "", err
	}
	return rec.State(), nil
}

// Statuses merges approval flags onto windows. It only reads; an absent
// store leaves every window unrequested.
func (s *Service) Statuses(ctx context.Context, windows []batch.Window) ([]WindowStatus, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrStoreAbsent) {
			return nil, fmt.Errorf("listing approvals: %w", err)
		}
		s.logger.Debug("approval store absent, treating all batches as unrequested")
		records = nil
	}

	byKey := make(map[string]*Record, len(records))
	for i := range records {
		byKey[records[i].Key().String()] = &records[i]
	}

	out := make([]WindowStatus, len(windows))
	for i, w := range windows {
		out[i] = WindowStatus{Window: w}
		if rec, ok := byKey[w.Key().String()]; ok {
			out[i].Requested = true
			out[i].Approved = rec.ApprovedAt != nil
		}
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, key batch.Key, actor string, typ activity.ActivityType, summary string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, &activity.ActivityEntry{
		BatchStart:   key.StartKey(),
		BatchEnd:     key.EndKey(),
		Actor:        actor,
		ActivityType: typ,
		Summary:      summary,
	})
}
