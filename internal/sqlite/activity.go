package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/batchreport/internal/domain/activity"
	"github.com/rpggio/batchreport/internal/repository"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if r.db == nil {
		return fmt.Errorf("log activity: %w", repository.ErrStoreAbsent)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO activity_log (
			batch_start, batch_end, actor, activity_type,
			summary, details, correlation_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := withRetry(ctx, r.db.retry, func() (sql.Result, error) {
		return r.db.ExecContext(ctx, query,
			entry.BatchStart,
			entry.BatchEnd,
			entry.Actor,
			entry.ActivityType,
			entry.Summary,
			entry.Details,
			entry.CorrelationID,
			createdAt,
		)
	})
	if err != nil {
		return storeError("log activity to", "activity_log", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		entry.ID = id
	}
	entry.CreatedAt = createdAt

	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	query := `
		SELECT
			id, batch_start, batch_end, actor, activity_type,
			summary, details, correlation_id, created_at
		FROM activity_log
	`

	var args []any
	var conditions []string

	if opts.BatchStart != "" {
		conditions = append(conditions, "batch_start = ?")
		args = append(args, opts.BatchStart)
	}
	if opts.BatchEnd != "" {
		conditions = append(conditions, "batch_end = ?")
		args = append(args, opts.BatchEnd)
	}
	if opts.ActivityType != nil {
		conditions = append(conditions, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	entries, err := queryRows(ctx, r.db, "activity_log", query, args, func(rows *sql.Rows) (activity.ActivityEntry, error) {
		var entry activity.ActivityEntry
		err := rows.Scan(
			&entry.ID,
			&entry.BatchStart,
			&entry.BatchEnd,
			&entry.Actor,
			&entry.ActivityType,
			&entry.Summary,
			&entry.Details,
			&entry.CorrelationID,
			&entry.CreatedAt,
		)
		return entry, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return entries, nil
}
