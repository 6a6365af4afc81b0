package batch

import "errors"

var (
	// ErrBatchNotFound indicates no reconstructed window matches the key.
	ErrBatchNotFound = errors.New("batch not found")
	// ErrInvalidKey indicates a malformed or inverted batch key.
	ErrInvalidKey = errors.New("invalid batch key")
	// ErrSecurityLogUnavailable indicates the security log cannot be read.
	ErrSecurityLogUnavailable = errors.New("security log unavailable")
)
