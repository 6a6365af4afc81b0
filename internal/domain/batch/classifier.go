package batch

import "strings"

// Default marker signatures written by the controller when the batch flag
// toggles.
const (
	DefaultStartMarker = "M`0090`00 00 Data Changed 0 --> 1"
	DefaultEndMarker   = "M`0299`08 08 Data Changed 0 --> 1"
)

// Classifier recognizes batch start and end signatures in log messages.
type Classifier struct {
	Start string
	End   string
}

// NewClassifier creates a classifier, falling back to the default signatures
// for empty markers.
func NewClassifier(start, end string) Classifier {
	if start == "" {
		start = DefaultStartMarker
	}
	if end == "" {
		end = DefaultEndMarker
	}
	return Classifier{Start: start, End: end}
}

// Classify reports independently whether msg contains each signature.
func (c Classifier) Classify(msg string) (isStart, isEnd bool) {
	return strings.Contains(msg, c.Start), strings.Contains(msg, c.End)
}

// Markers returns both signatures for store-side prefiltering.
func (c Classifier) Markers() []string {
	return []string{c.Start, c.End}
}
