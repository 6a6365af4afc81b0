package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/batchreport/internal/chart"
	"github.com/rpggio/batchreport/internal/domain/approval"
	"github.com/rpggio/batchreport/internal/domain/batch"
	"github.com/rpggio/batchreport/internal/render"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, batch.ErrInvalidKey):
		return &APIError{Code: "INVALID_BATCH_KEY", Message: err.Error(), RecoveryHint: "Use start_key and end_key from list_batches"}
	case errors.Is(err, batch.ErrBatchNotFound):
		return &APIError{Code: "BATCH_NOT_FOUND", Message: "batch not found", RecoveryHint: "Call list_batches for current windows"}
	case errors.Is(err, batch.ErrSecurityLogUnavailable):
		return &APIError{Code: "SECURITY_LOG_UNAVAILABLE", Message: "security log store is not available", RecoveryHint: "Check stores.security.path"}
	case errors.Is(err, approval.ErrMissingReason):
		return &APIError{Code: "MISSING_REASON", Message: err.Error(), RecoveryHint: "Give a reason for every checked item"}
	case errors.Is(err, approval.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, approval.ErrDuplicateRequest):
		return &APIError{Code: "DUPLICATE_REQUEST", Message: "approval already requested for this batch", RecoveryHint: "Use approve_batch or get_batch"}
	case errors.Is(err, render.ErrUnknownFormat):
		return &APIError{Code: "UNKNOWN_FORMAT", Message: err.Error()}
	case errors.Is(err, chart.ErrInvalidChannel):
		return &APIError{Code: "INVALID_CHANNEL", Message: err.Error()}
	default:
		return nil
	}
}

// mapError converts known domain errors to APIError and passes others through.
func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
