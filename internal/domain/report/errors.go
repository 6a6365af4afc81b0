package report

import "errors"

var (
	// ErrInvalidOptions indicates composer options that cannot produce a report.
	ErrInvalidOptions = errors.New("invalid report options")
)
