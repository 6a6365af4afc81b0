package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rpggio/batchreport/internal/repository"
)

// Default table names of the plant log databases.
const (
	DefaultSecurityTable = "TB_SECULOG"
	DefaultAlarmTable    = "TB_ALARMLOG"
	DefaultTrendTable    = "TB_TRENDLOG"
)

// keyExpr builds the fixed-width YYYYMMDDHHmmssfff key of a date/time column
// pair. Integer time columns lose their leading zeros, so the time part is
// re-padded to 9 digits before concatenation.
func keyExpr(dateCol, timeCol string) string {
	return fmt.Sprintf("(CAST(%s AS TEXT) || substr('000000000' || CAST(%s AS TEXT), -9, 9))", dateCol, timeCol)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func queryRows[T any](ctx context.Context, db *DB, table, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	if db == nil {
		return nil, fmt.Errorf("query %s: %w", table, repository.ErrStoreAbsent)
	}
	out, err := withRetry(ctx, db.retry, func() ([]T, error) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var items []T
		for rows.Next() {
			item, err := scan(rows)
			if err != nil {
				return nil, fmt.Errorf("failed to scan row: %w", err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating rows: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, storeError("query", table, err)
	}
	return out, nil
}

// SecurityLogRepository implements repository.SecurityLogStore for SQLite
type SecurityLogRepository struct {
	db    *DB
	table string
}

// NewSecurityLogRepository creates a new SecurityLogRepository. A nil db
// behaves as an absent store.
func NewSecurityLogRepository(db *DB, table string) *SecurityLogRepository {
	if table == "" {
		table = DefaultSecurityTable
	}
	return &SecurityLogRepository{db: db, table: table}
}

// QueryMarkers returns rows whose message contains any of the substrings.
// Containment is case-sensitive and treats the substrings literally.
func (r *SecurityLogRepository) QueryMarkers(ctx context.Context, substrings []string, order repository.SortOrder) ([]repository.SecurityRow, error) {
	if len(substrings) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(substrings))
	args := make([]any, 0, len(substrings))
	for _, s := range substrings {
		conditions = append(conditions, "instr(log_msg, ?) > 0")
		args = append(args, s)
	}

	direction := "ASC"
	if order == repository.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT log_date, log_time, log_msg
		FROM %s
		WHERE %s
		ORDER BY %s %s
	`, quoteIdent(r.table), strings.Join(conditions, " OR "), keyExpr("log_date", "log_time"), direction)

	return queryRows(ctx, r.db, r.table, query, args, scanSecurityRow)
}

// QueryRange returns rows inside the key range in ascending order.
func (r *SecurityLogRepository) QueryRange(ctx context.Context, kr repository.KeyRange) ([]repository.SecurityRow, error) {
	key := keyExpr("log_date", "log_time")
	query := fmt.Sprintf(`
		SELECT log_date, log_time, log_msg
		FROM %s
		WHERE %s BETWEEN ? AND ?
		ORDER BY %s ASC
	`, quoteIdent(r.table), key, key)

	return queryRows(ctx, r.db, r.table, query, []any{kr.StartKey, kr.EndKey}, scanSecurityRow)
}

func scanSecurityRow(rows *sql.Rows) (repository.SecurityRow, error) {
	var row repository.SecurityRow
	var msg sql.NullString
	if err := rows.Scan(&row.Date, &row.Time, &msg); err != nil {
		return row, err
	}
	row.Message = msg.String
	return row, nil
}

// AlarmLogRepository implements repository.AlarmLogStore for SQLite
type AlarmLogRepository struct {
	db    *DB
	table string
}

// NewAlarmLogRepository creates a new AlarmLogRepository. A nil db behaves as
// an absent store.
func NewAlarmLogRepository(db *DB, table string) *AlarmLogRepository {
	if table == "" {
		table = DefaultAlarmTable
	}
	return &AlarmLogRepository{db: db, table: table}
}

// QueryRange returns alarms that occurred inside the key range.
func (r *AlarmLogRepository) QueryRange(ctx context.Context, kr repository.KeyRange) ([]repository.AlarmRow, error) {
	key := keyExpr("occur_date", "occur_time")
	query := fmt.Sprintf(`
		SELECT occur_date, occur_time, recover_date, recover_time, alarm_id
		FROM %s
		WHERE %s BETWEEN ? AND ?
		ORDER BY %s ASC
	`, quoteIdent(r.table), key, key)

	return queryRows(ctx, r.db, r.table, query, []any{kr.StartKey, kr.EndKey}, func(rows *sql.Rows) (repository.AlarmRow, error) {
		var row repository.AlarmRow
		var alarmID sql.NullString
		if err := rows.Scan(&row.OccurDate, &row.OccurTime, &row.RecoverDate, &row.RecoverTime, &alarmID); err != nil {
			return row, err
		}
		row.AlarmID = alarmID.String
		return row, nil
	})
}

// TrendLogRepository implements repository.TrendLogStore for SQLite
type TrendLogRepository struct {
	db    *DB
	table string
}

// NewTrendLogRepository creates a new TrendLogRepository. A nil db behaves as
// an absent store.
func NewTrendLogRepository(db *DB, table string) *TrendLogRepository {
	if table == "" {
		table = DefaultTrendTable
	}
	return &TrendLogRepository{db: db, table: table}
}

// QueryRange returns trend samples inside the key range. NULL measurements
// are returned as nil pointers for the caller to filter.
func (r *TrendLogRepository) QueryRange(ctx context.Context, kr repository.KeyRange) ([]repository.TrendRow, error) {
	key := keyExpr("log_date", "log_time")
	query := fmt.Sprintf(`
		SELECT log_date, log_time, value1, value2, value3, process_code
		FROM %s
		WHERE %s BETWEEN ? AND ?
		ORDER BY %s ASC
	`, quoteIdent(r.table), key, key)

	return queryRows(ctx, r.db, r.table, query, []any{kr.StartKey, kr.EndKey}, func(rows *sql.Rows) (repository.TrendRow, error) {
		var row repository.TrendRow
		var v1, v2, v3 sql.NullFloat64
		var code sql.NullInt64
		if err := rows.Scan(&row.Date, &row.Time, &v1, &v2, &v3, &code); err != nil {
			return row, err
		}
		row.Value1 = nullFloat(v1)
		row.Value2 = nullFloat(v2)
		row.Value3 = nullFloat(v3)
		if code.Valid {
			c := code.Int64
			row.ProcessCode = &c
		}
		return row, nil
	})
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
