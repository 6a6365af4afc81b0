package batchdata

import (
	"time"

	"github.com/rpggio/batchreport/internal/domain/batch"
)

// SecurityEntry is a decoded security log row.
type SecurityEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Alarm is a decoded alarm occurrence. A nil RecoveredAt means the alarm was
// still active when the log was read.
type Alarm struct {
	OccurredAt  time.Time  `json:"occurred_at"`
	RecoveredAt *time.Time `json:"recovered_at,omitempty"`
	AlarmID     string     `json:"alarm_id"`
}

// Recovered reports whether the alarm has a recovery timestamp.
func (a Alarm) Recovered() bool { return a.RecoveredAt != nil }

// TrendSample is one complete trend reading.
type TrendSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Value1      float64   `json:"value1"`
	Value2      float64   `json:"value2"`
	Value3      float64   `json:"value3"`
	ProcessCode int64     `json:"process_code"`
}

// Skipped counts rows dropped as data-quality noise per source.
type Skipped struct {
	Security int `json:"security"`
	Alarms   int `json:"alarms"`
	Trend    int `json:"trend"`
}

// Availability records which stores could be read. An absent store yields an
// empty row set rather than an error.
type Availability struct {
	Security bool `json:"security"`
	Alarms   bool `json:"alarms"`
	Trend    bool `json:"trend"`
}

// BatchData is the joined row sets of one batch window.
type BatchData struct {
	Window    batch.Window    `json:"window"`
	Security  []SecurityEntry `json:"security"`
	Alarms    []Alarm         `json:"alarms"`
	Trend     []TrendSample   `json:"trend"`
	Available Availability    `json:"available"`
	Skipped   Skipped         `json:"skipped"`
}
