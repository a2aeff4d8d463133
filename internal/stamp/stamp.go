// Package stamp models the two timestamp encodings found in remote
// documents: epoch milliseconds and ISO-8601 strings. Both normalize to a
// single canonical local string.
package stamp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CanonicalLayout is the local string form: UTC, millisecond precision.
const CanonicalLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a closed sum type: Millis or ISO.
type Timestamp interface {
	Time() (time.Time, error)
	isTimestamp()
}

// Millis is an epoch-millisecond timestamp.
type Millis int64

// ISO is an ISO-8601 timestamp string.
type ISO string

func (m Millis) Time() (time.Time, error) {
	return time.UnixMilli(int64(m)).UTC(), nil
}

func (Millis) isTimestamp() {}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Time parses the string. Values without a zone are taken as UTC.
func (s ISO) Time() (time.Time, error) {
	v := strings.TrimSpace(string(s))
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized ISO timestamp %q", v)
}

func (ISO) isTimestamp() {}

// FromValue classifies a decoded document value. Numbers (including numeric
// strings) are Millis, other strings are ISO. ok is false for anything else.
func FromValue(v any) (Timestamp, bool) {
	switch x := v.(type) {
	case int64:
		return Millis(x), true
	case int:
		return Millis(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		return Millis(int64(x)), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return Millis(n), true
		}
		if f, err := x.Float64(); err == nil {
			return Millis(int64(f)), true
		}
		return nil, false
	case string:
		if x == "" {
			return nil, false
		}
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return Millis(n), true
		}
		return ISO(x), true
	case time.Time:
		return Millis(x.UnixMilli()), true
	}
	return nil, false
}

// Normalize converts any Timestamp to time.Time in UTC, truncated to
// milliseconds so both encodings of one instant compare equal.
func Normalize(ts Timestamp) (time.Time, error) {
	if ts == nil {
		return time.Time{}, fmt.Errorf("nil timestamp")
	}
	t, err := ts.Time()
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(time.Millisecond), nil
}

// Canonical renders t in CanonicalLayout.
func Canonical(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(CanonicalLayout)
}

// CanonicalOf normalizes ts and renders it in CanonicalLayout.
func CanonicalOf(ts Timestamp) (string, error) {
	t, err := Normalize(ts)
	if err != nil {
		return "", err
	}
	return Canonical(t), nil
}

// ToMillis converts a local ISO string to epoch milliseconds.
func ToMillis(iso string) (int64, error) {
	t, err := Normalize(ISO(iso))
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
