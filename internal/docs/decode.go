package docs

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bizsync/internal/docstore"
	"github.com/dmitrijs2005/bizsync/internal/stamp"
	"github.com/shopspring/decimal"
)

var (
	ErrFieldMissing = errors.New("missing")
	ErrFieldType    = errors.New("unexpected type")
)

// timeNow is the last-resort value for timestamps a document lacks.
var timeNow = time.Now

// Report lists the fields of one document that fell back to a default.
type Report struct {
	Entity    string
	DocID     string
	Fallbacks []string
}

func (r Report) Clean() bool { return len(r.Fallbacks) == 0 }

// DecodeError means a document could not be turned into an entity at all.
type DecodeError struct {
	Entity string
	DocID  string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: field %s: %v", e.Entity, e.DocID, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder reads typed values out of a document's field map. Lookups take
// one or more keys; the first key holding a non-null value wins.
type Decoder struct {
	fields map[string]any
	docID  string
	report Report
	err    *DecodeError
}

func NewDecoder(entity string, doc docstore.Document) *Decoder {
	return newMapDecoder(entity, doc.ID, doc.Fields)
}

func newMapDecoder(entity, docID string, fields map[string]any) *Decoder {
	return &Decoder{
		fields: fields,
		docID:  docID,
		report: Report{Entity: entity, DocID: docID},
	}
}

// Finish returns the fallback report and the first fatal error, if any.
func (d *Decoder) Finish() (Report, error) {
	if d.err != nil {
		return d.report, d.err
	}
	return d.report, nil
}

func (d *Decoder) fail(field string, err error) {
	if d.err == nil {
		d.err = &DecodeError{Entity: d.report.Entity, DocID: d.docID, Field: field, Err: err}
	}
}

func (d *Decoder) fallback(field string) {
	for _, f := range d.report.Fallbacks {
		if f == field {
			return
		}
	}
	d.report.Fallbacks = append(d.report.Fallbacks, field)
}

func (d *Decoder) lookup(keys []string) (any, string, bool) {
	for _, k := range keys {
		if v, ok := d.fields[k]; ok && v != nil {
			return v, k, true
		}
	}
	return nil, keys[0], false
}

// Raw returns the first non-null value under keys.
func (d *Decoder) Raw(keys ...string) (any, bool) {
	v, _, ok := d.lookup(keys)
	return v, ok
}

// ID prefers a non-empty "id" field and falls back to the document ID.
func (d *Decoder) ID() string {
	if s, ok := d.fields["id"].(string); ok && s != "" {
		return s
	}
	if d.docID == "" {
		d.fail("id", ErrFieldMissing)
	}
	return d.docID
}

// RequiredString fails the document when no key holds a non-empty string.
func (d *Decoder) RequiredString(keys ...string) string {
	v, key, ok := d.lookup(keys)
	if !ok {
		d.fail(key, ErrFieldMissing)
		return ""
	}
	s, ok := asString(v)
	if !ok {
		d.fail(key, ErrFieldType)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		d.fail(key, ErrFieldMissing)
	}
	return s
}

// String returns def for a missing key without reporting it; empty text is
// a normal value.
func (d *Decoder) String(def string, keys ...string) string {
	v, key, ok := d.lookup(keys)
	if !ok {
		return def
	}
	s, ok := asString(v)
	if !ok {
		d.fallback(key)
		return def
	}
	return s
}

// OptString is nil for a missing or empty value.
func (d *Decoder) OptString(keys ...string) *string {
	s := d.String("", keys...)
	if s == "" {
		return nil
	}
	return &s
}

func (d *Decoder) Int(def int, keys ...string) int {
	v, key, ok := d.lookup(keys)
	if !ok {
		d.fallback(key)
		return def
	}
	n, ok := asInt(v)
	if !ok {
		d.fallback(key)
		return def
	}
	return n
}

func (d *Decoder) Bool(def bool, keys ...string) bool {
	v, key, ok := d.lookup(keys)
	if !ok {
		d.fallback(key)
		return def
	}
	b, ok := asBool(v)
	if !ok {
		d.fallback(key)
		return def
	}
	return b
}

func (d *Decoder) Decimal(def decimal.Decimal, keys ...string) decimal.Decimal {
	v, key, ok := d.lookup(keys)
	if !ok {
		d.fallback(key)
		return def
	}
	n, ok := asDecimal(v)
	if !ok {
		d.fallback(key)
		return def
	}
	return n
}

// OptDecimal is nil for a missing value and reports a malformed one.
func (d *Decoder) OptDecimal(keys ...string) *decimal.Decimal {
	v, key, ok := d.lookup(keys)
	if !ok {
		return nil
	}
	n, ok := asDecimal(v)
	if !ok {
		d.fallback(key)
		return nil
	}
	return &n
}

// stampOf reads one key as a timestamp in either encoding. A zero
// millisecond value counts as absent.
func (d *Decoder) stampOf(key string) (time.Time, bool) {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	ts, ok := stamp.FromValue(v)
	if !ok {
		return time.Time{}, false
	}
	if ms, isMillis := ts.(stamp.Millis); isMillis && ms == 0 {
		return time.Time{}, false
	}
	t, err := stamp.Normalize(ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Time tries each key in order and falls back to def. Using anything other
// than the first key is reported.
func (d *Decoder) Time(def time.Time, keys ...string) time.Time {
	for n, k := range keys {
		if t, ok := d.stampOf(k); ok {
			if n > 0 {
				d.fallback(keys[0])
			}
			return t
		}
	}
	d.fallback(keys[0])
	return def.UTC().Truncate(time.Millisecond)
}

// TimeOrNow is Time with the current time as the last resort.
func (d *Decoder) TimeOrNow(keys ...string) time.Time {
	return d.Time(timeNow(), keys...)
}

// OptTime is nil when no key holds a timestamp; a present but unreadable
// value is reported.
func (d *Decoder) OptTime(keys ...string) *time.Time {
	for _, k := range keys {
		if t, ok := d.stampOf(k); ok {
			return &t
		}
	}
	if _, key, ok := d.lookup(keys); ok {
		d.fallback(key)
	}
	return nil
}

// StringList accepts a list of strings or a comma-separated string.
func (d *Decoder) StringList(keys ...string) []string {
	v, key, ok := d.lookup(keys)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := asString(e)
			if !ok || s == "" {
				d.fallback(key)
				continue
			}
			out = append(out, s)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	case string:
		return SplitList(x)
	}
	d.fallback(key)
	return nil
}

// StringMap reads an object of string values.
func (d *Decoder) StringMap(keys ...string) map[string]string {
	v, key, ok := d.lookup(keys)
	if !ok {
		return map[string]string{}
	}
	out := map[string]string{}
	obj, ok := v.(map[string]any)
	if !ok {
		d.fallback(key)
		return out
	}
	for k, e := range obj {
		s, ok := asString(e)
		if !ok {
			d.fallback(key)
			continue
		}
		out[k] = s
	}
	return out
}

// Objects reads a list of objects. present is false when the key is absent
// or null; elements that are not objects are reported and skipped.
func (d *Decoder) Objects(key string) (objs []map[string]any, present bool) {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return nil, false
	}
	list, ok := v.([]any)
	if !ok {
		d.fallback(key)
		return nil, true
	}
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			d.fallback(key)
			continue
		}
		objs = append(objs, m)
	}
	return objs, true
}

// SplitList splits a comma-separated list and drops empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b, true
		}
	case json.Number, int, int64, float64:
		if n, ok := asInt(x); ok && (n == 0 || n == 1) {
			return n == 1, true
		}
	}
	return false, false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(x.String()); err == nil {
			return d, true
		}
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(x)); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
