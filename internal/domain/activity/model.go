package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeApprovalRequested ActivityType = "approval_requested"
	TypeBatchApproved     ActivityType = "batch_approved"
	TypeReportGenerated   ActivityType = "report_generated"
)

// ActivityEntry represents an event in the audit trail of a batch
type ActivityEntry struct {
	ID            int64        `json:"id"`
	BatchStart    string       `json:"batch_start"`
	BatchEnd      string       `json:"batch_end"`
	Actor         string       `json:"actor,omitempty"`
	ActivityType  ActivityType `json:"type"`
	Summary       string       `json:"summary"`
	Details       string       `json:"details,omitempty"` // JSON string
	CorrelationID string       `json:"correlation_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
