package repository

import "context"

// SortOrder controls chronological ordering of log rows.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// KeyRange bounds a range query by composite YYYYMMDDHHmmssfff keys, inclusive
// at both ends.
type KeyRange struct {
	StartKey string
	EndKey   string
}

// SecurityRow is a raw security log row. Date and Time hold the column values
// as scanned (text, blob or integer) and are decoded by the caller.
type SecurityRow struct {
	Date    any
	Time    any
	Message string
}

// AlarmRow is a raw alarm log row. Recovery fields are nil while the alarm is
// still active.
type AlarmRow struct {
	OccurDate   any
	OccurTime   any
	RecoverDate any
	RecoverTime any
	AlarmID     string
}

// TrendRow is a raw trend log row. Nil measurement pointers are NULL columns.
type TrendRow struct {
	Date        any
	Time        any
	Value1      *float64
	Value2      *float64
	Value3      *float64
	ProcessCode *int64
}

// SecurityLogStore reads the security event log.
type SecurityLogStore interface {
	// QueryMarkers returns rows whose message contains any of the substrings.
	QueryMarkers(ctx context.Context, substrings []string, order SortOrder) ([]SecurityRow, error)
	QueryRange(ctx context.Context, r KeyRange) ([]SecurityRow, error)
}

// AlarmLogStore reads alarm occurrences by occurrence time.
type AlarmLogStore interface {
	QueryRange(ctx context.Context, r KeyRange) ([]AlarmRow, error)
}

// TrendLogStore reads trend samples.
type TrendLogStore interface {
	QueryRange(ctx context.Context, r KeyRange) ([]TrendRow, error)
}
