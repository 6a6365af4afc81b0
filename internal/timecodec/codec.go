// Package timecodec converts the split date / time-of-day encodings used by the
// log stores into absolute timestamps and back.
//
// Dates are 8-digit YYYYMMDD values. Times of day are up to 9-digit HHMMSSmmm
// values that may have lost their leading zeros on the way through an integer
// column, so they are always left-padded to 9 digits before slicing.
package timecodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateWidth is the width of a YYYYMMDD date field.
	DateWidth = 8
	// ClockWidth is the width of a zero-padded HHMMSSmmm time-of-day field.
	ClockWidth = 9
	// KeyWidth is the width of a composite YYYYMMDDHHmmssfff key.
	KeyWidth = DateWidth + ClockWidth

	dateLayout = "20060102"
)

var (
	// ErrEmptyDate indicates a missing date component.
	ErrEmptyDate = errors.New("empty date")
	// ErrInvalidDate indicates a date that is not a strict YYYYMMDD value.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidTime indicates a time of day that is not numeric or out of range.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrTimeWidth indicates a time of day wider than 9 digits.
	ErrTimeWidth = errors.New("time of day wider than 9 digits")
	// ErrInvalidKey indicates a composite key that is not 17 digits.
	ErrInvalidKey = errors.New("invalid composite time key")
)

// Codec decodes store fields into timestamps in a single implicit zone.
type Codec struct {
	loc *time.Location
}

// New creates a codec for the given location. A nil location means time.Local.
func New(loc *time.Location) Codec {
	if loc == nil {
		loc = time.Local
	}
	return Codec{loc: loc}
}

// Location returns the zone all decoded timestamps are placed in.
func (c Codec) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// Decode combines raw date and time-of-day column values. Both may arrive as
// text or integers.
func (c Codec) Decode(dateRaw, timeRaw any) (time.Time, error) {
	date, _ := Text(dateRaw)
	clock, ok := Text(timeRaw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTime, timeRaw)
	}
	return c.DecodeStrings(date, clock)
}

// DecodeStrings combines a YYYYMMDD date and an HHMMSSmmm time of day.
func (c Codec) DecodeStrings(date, clock string) (time.Time, error) {
	day, err := c.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, s, ms, err := clockFields(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, s, ms*int(time.Millisecond), c.Location()), nil
}

// ParseDate parses a strict YYYYMMDD date at midnight in the codec's zone.
func (c Codec) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrEmptyDate
	}
	if len(raw) != DateWidth || !allDigits(raw) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	day, err := time.ParseInLocation(dateLayout, raw, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return day, nil
}

func clockFields(raw string) (h, m, s, ms int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !allDigits(raw) {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	if len(raw) > ClockWidth {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrTimeWidth, raw)
	}
	h, m, s, ms = SplitClock(PadClock(raw))
	if h > 23 || m > 59 || s > 59 {
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
	}
	return h, m, s, ms, nil
}

// PadClock left-pads a time-of-day value with zeros to 9 digits.
func PadClock(raw string) string {
	if len(raw) >= ClockWidth {
		return raw
	}
	return strings.Repeat("0", ClockWidth-len(raw)) + raw
}

// SplitClock slices a 9-digit clock into its 2-2-2-3 digit fields. The input
// must already be padded and numeric.
func SplitClock(padded string) (hour, minute, second, millis int) {
	hour, _ = strconv.Atoi(padded[0:2])
	minute, _ = strconv.Atoi(padded[2:4])
	second, _ = strconv.Atoi(padded[4:6])
	millis, _ = strconv.Atoi(padded[6:9])
	return hour, minute, second, millis
}

// EncodeClock packs clock fields into the integer form stored in the logs.
func EncodeClock(hour, minute, second, millis int) int64 {
	return int64(hour)*10_000_000 + int64(minute)*100_000 + int64(second)*1_000 + int64(millis)
}

// FormatDate renders the YYYYMMDD date part of t.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatClock renders the zero-padded HHMMSSmmm time-of-day part of t.
func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d%03d", t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

// Key renders t as a fixed-width YYYYMMDDHHmmssfff key. Keys of equal width
// compare lexicographically in chronological order.
func Key(t time.Time) string {
	return FormatDate(t) + FormatClock(t)
}

// ParseKey is the inverse of Key.
func (c Codec) ParseKey(key string) (time.Time, error) {
	key = strings.TrimSpace(key)
	if len(key) != KeyWidth || !allDigits(key) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	t, err := c.DecodeStrings(key[:DateWidth], key[DateWidth:])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return t, nil
}

// Text normalizes a raw column value (text, blob or number) to its decimal
// text form. It reports false for NULL and non-integral numbers.
func Text(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case []byte:
		return string(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case float64:
		if v != float64(int64(v)) {
			return "", false
		}
		return strconv.FormatInt(int64(v), 10), true
	default:
		return fmt.Sprint(v), true
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
