package activity

import "errors"

// ErrInvalidInput indicates an activity entry without a type or batch.
var ErrInvalidInput = errors.New("invalid activity input")
