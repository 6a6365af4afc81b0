package approval

import "errors"

var (
	// ErrInvalidInput indicates a request without a batch key or requester.
	ErrInvalidInput = errors.New("invalid approval input")
	// ErrMissingReason indicates a checked checklist item without a reason.
	ErrMissingReason = errors.New("checked item requires a reason")
	// ErrDuplicateRequest indicates the batch already has an approval request.
	ErrDuplicateRequest = errors.New("approval already requested for batch")
	// ErrApprovalNotFound indicates no approval record exists for the batch.
	ErrApprovalNotFound = errors.New("approval not found")
)
