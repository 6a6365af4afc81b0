package approval

import (
	"time"

	"github.com/rpggio/batchreport/internal/domain/batch"
)

// ChecklistSize is the fixed number of checklist items on a request.
const ChecklistSize = 3

// State is the lifecycle position of a batch's approval.
type State string

const (
	StateNone      State = "none"
	StateRequested State = "requested"
	StateApproved  State = "approved"
)

// Outcome distinguishes a performed approval from a no-op.
type Outcome string

const (
	OutcomeApproved         Outcome = "approved"
	OutcomeNothingToApprove Outcome = "nothing_to_approve"
)

// ChecklistItem is one flag on the request form. A checked item must carry a
// reason.
type ChecklistItem struct {
	Checked bool   `json:"checked"`
	Reason  string `json:"reason,omitempty"`
}

// Record is the persisted approval of one batch window.
type Record struct {
	BatchStart  time.Time                    `json:"batch_start"`
	BatchEnd    time.Time                    `json:"batch_end"`
	RequestedBy string                       `json:"requested_by"`
	RequestedAt time.Time                    `json:"requested_at"`
	ApprovedAt  *time.Time                   `json:"approved_at,omitempty"`
	ApprovedBy  string                       `json:"approved_by,omitempty"`
	Checklist   [ChecklistSize]ChecklistItem `json:"checklist"`
}

// Key returns the batch key the record belongs to.
func (r *Record) Key() batch.Key {
	return batch.Key{Start: r.BatchStart, End: r.BatchEnd}
}

// State derives the lifecycle state from the record.
func (r *Record) State() State {
	if r == nil {
		return StateNone
	}
	if r.ApprovedAt != nil {
		return StateApproved
	}
	return StateRequested
}

// RequestInput defines the inputs of an approval request.
type RequestInput struct {
	Batch       batch.Key
	RequestedBy string
	RequestedAt time.Time
	Checklist   [ChecklistSize]ChecklistItem
}

// Status is the display-only approval flags of a window.
type Status struct {
	Requested bool `json:"is_requested"`
	Approved  bool `json:"is_approved"`
}

// WindowStatus is a batch window annotated with its approval status.
type WindowStatus struct {
	batch.Window
	Status
}
