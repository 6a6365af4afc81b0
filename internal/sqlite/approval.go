package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/internal/timecodec"
)

// ApprovalRepository implements approval.Repository for SQLite. Batch keys
// are stored as fixed-width YYYYMMDDHHmmssfff strings.
type ApprovalRepository struct {
	db    *DB
	codec timecodec.Codec
}

// NewApprovalRepository creates a new ApprovalRepository. A nil db behaves
// as an absent store.
func NewApprovalRepository(db *DB, codec timecodec.Codec) *ApprovalRepository {
	return &ApprovalRepository{db: db, codec: codec}
}

const approvalColumns = `
	batch_start, batch_end, requested_by, requested_at, approved_at, approved_by,
	check1, reason1, check2, reason2, check3, reason3`

// Create inserts a request. The primary key rejects a second request for the
// same batch.
func (r *ApprovalRepository) Create(ctx context.Context, rec *approval.Record) error {
	if r.db == nil {
		return fmt.Errorf("create approval: %w", repository.ErrStoreAbsent)
	}
	query := `INSERT INTO approvals (` + approvalColumns + `) VALUES (?, ?, ?, ?, NULL, NULL, ?, ?, ?, ?, ?, ?)`

	key := rec.Key()
	_, err := withRetry(ctx, r.db.retry, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query,
			key.StartKey(),
			key.EndKey(),
			rec.RequestedBy,
			rec.RequestedAt,
			rec.Checklist[0].Checked, rec.Checklist[0].Reason,
			rec.Checklist[1].Checked, rec.Checklist[1].Reason,
			rec.Checklist[2].Checked, rec.Checklist[2].Reason,
		)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return storeError("create approval in", "approvals", err)
	}
	return nil
}

// Approve sets approved_at only if it is still NULL.
func (r *ApprovalRepository) Approve(ctx context.Context, key batch.Key, approver string, at time.Time) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("approve: %w", repository.ErrStoreAbsent)
	}
	query := `
		UPDATE approvals
		SET approved_at = ?, approved_by = ?
		WHERE batch_start = ? AND batch_end = ? AND approved_at IS NULL
	`
	result, err := withRetry(ctx, r.db.retry, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query, at, approver, key.StartKey(), key.EndKey())
	})
	if err != nil {
		return false, storeError("approve in", "approvals", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Get loads the record of one batch.
func (r *ApprovalRepository) Get(ctx context.Context, key batch.Key) (*approval.Record, error) {
	if r.db == nil {
		return nil, fmt.Errorf("get approval: %w", repository.ErrStoreAbsent)
	}
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE batch_start = ? AND batch_end = ?`

	rec, err := withRetry(ctx, r.db.retry, func() (*approval.Record, error) {
		return r.scan(r.db.QueryRowContext(ctx, query, key.StartKey(), key.EndKey()))
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, storeError("get approval from", "approvals", err)
	}
	return rec, nil
}

// List returns every approval record ordered by batch start.
func (r *ApprovalRepository) List(ctx context.Context) ([]approval.Record, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals ORDER BY batch_start ASC`
	return queryRows(ctx, r.db, "approvals", query, nil, func(rows *sql.Rows) (approval.Record, error) {
		rec, err := r.scan(rows)
		if err != nil {
			return approval.Record{}, err
		}
		return *rec, nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ApprovalRepository) scan(row rowScanner) (*approval.Record, error) {
	var rec approval.Record
	var start, end string
	var approvedAt sql.NullTime
	var approvedBy sql.NullString
	if err := row.Scan(
		&start,
		&end,
		&rec.RequestedBy,
		&rec.RequestedAt,
		&approvedAt,
		&approvedBy,
		&rec.Checklist[0].Checked, &rec.Checklist[0].Reason,
		&rec.Checklist[1].Checked, &rec.Checklist[1].Reason,
		&rec.Checklist[2].Checked, &rec.Checklist[2].Reason,
	); err != nil {
		return nil, err
	}

	var err error
	if rec.BatchStart, err = r.codec.ParseKey(start); err != nil {
		return nil, fmt.Errorf("decoding batch_start: %w", err)
	}
	if rec.BatchEnd, err = r.codec.ParseKey(end); err != nil {
		return nil, fmt.Errorf("decoding batch_end: %w", err)
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}
	rec.ApprovedBy = approvedBy.String
	return &rec, nil
}
