package approval

import (
	"fmt"
	"strings"
)

// ValidateRequest checks a request before anything is persisted.
func ValidateRequest(in RequestInput) error {
	if err := in.Batch.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(in.RequestedBy) == "" {
		return fmt.Errorf("%w: requester is required", ErrInvalidInput)
	}
	for i, item := range in.Checklist {
		if item.Checked && strings.TrimSpace(item.Reason) == "" {
			return fmt.Errorf("%w: item %d", ErrMissingReason, i+1)
		}
	}
	return nil
}
