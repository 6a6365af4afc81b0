package batch

import (
	"fmt"
	"time"

	"github.com/rpggio/batchreport/internal/repository"
	"github.com/rpggio/batchreport/internal/timecodec"
)

// DisplayLayout renders batch boundaries with millisecond precision.
const DisplayLayout = "2006-01-02 15:04:05.000"

// LogEvent is a classified security log entry.
type LogEvent struct {
	Timestamp time.Time
	IsStart   bool
	IsEnd     bool
}

// Window is one reconstructed batch execution.
type Window struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Key returns the natural key of the window.
func (w Window) Key() Key {
	return Key{Start: w.Start, End: w.End}
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Key identifies a batch by its boundary timestamps.
type Key struct {
	Start time.Time
	End   time.Time
}

// StartKey renders the start boundary as a YYYYMMDDHHmmssfff key.
func (k Key) StartKey() string { return timecodec.Key(k.Start) }

// EndKey renders the end boundary as a YYYYMMDDHHmmssfff key.
func (k Key) EndKey() string { return timecodec.Key(k.End) }

func (k Key) String() string { return k.StartKey() + "-" + k.EndKey() }

// Range converts the key into an inclusive store query range.
func (k Key) Range() repository.KeyRange {
	return repository.KeyRange{StartKey: k.StartKey(), EndKey: k.EndKey()}
}

// Validate checks that both boundaries are set and ordered.
func (k Key) Validate() error {
	if k.Start.IsZero() || k.End.IsZero() {
		return fmt.Errorf("%w: missing boundary", ErrInvalidKey)
	}
	if k.End.Before(k.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidKey, k.End.Format(DisplayLayout), k.Start.Format(DisplayLayout))
	}
	return nil
}

// ParseKey builds a key from two YYYYMMDDHHmmssfff strings.
func ParseKey(codec timecodec.Codec, start, end string) (Key, error) {
	s, err := codec.ParseKey(start)
	if err != nil {
		return Key{}, fmt.Errorf("%w: start: %v", ErrInvalidKey, err)
	}
	e, err := codec.ParseKey(end)
	if err != nil {
		return Key{}, fmt.Errorf("%w: end: %v", ErrInvalidKey, err)
	}
	k := Key{Start: s, End: e}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// DiagnosticKind names a marker the reconstructor could not pair.
type DiagnosticKind string

const (
	// DiagnosticDanglingEnd is an end marker with no older start marker.
	DiagnosticDanglingEnd DiagnosticKind = "dangling_end"
	// DiagnosticRepeatedEnd is an end marker older than the end already
	// paired with the next start.
	DiagnosticRepeatedEnd DiagnosticKind = "repeated_end"
	// DiagnosticUnclosedStart is a start marker newer than any unpaired end,
	// typically a batch still running.
	DiagnosticUnclosedStart DiagnosticKind = "unclosed_start"
)

// Diagnostic reports a marker dropped during reconstruction.
type Diagnostic struct {
	Kind DiagnosticKind `json:"kind"`
	At   time.Time      `json:"at"`
}

// Result is the output of a reconstruction pass.
type Result struct {
	Windows     []Window
	Diagnostics []Diagnostic
}
