package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind enumerates the variants a runtime Value can hold.
type Kind uint8

const (
	KindUnset Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	default:
		return "unset"
	}
}

// DateLayout is the calendar-date layout used for date values on the wire.
const DateLayout = "2006-01-02"

// Value is a runtime field value: unset, a string, a number, a boolean or a
// calendar date. The zero Value is unset.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	date time.Time
}

// Unset returns the empty value.
func Unset() Value { return Value{} }

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Date wraps a calendar date. The time-of-day and location are dropped.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether v holds anything at all.
func (v Value) IsSet() bool { return v.kind != KindUnset }

// IsEmpty reports whether v counts as "no answer": unset or the empty string.
func (v Value) IsEmpty() bool {
	return v.kind == KindUnset || (v.kind == KindString && v.str == "")
}

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// BoolValue returns the boolean payload and whether v is a boolean.
func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber coerces v into a finite number. Strings are parsed after trimming
// surrounding whitespace.
func (v Value) AsNumber() (float64, bool) {
	var n float64
	switch v.kind {
	case KindNumber:
		n = v.num
	case KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// AsDate coerces v into a calendar date. Strings may be YYYY-MM-DD or a full
// RFC 3339 timestamp.
func (v Value) AsDate() (time.Time, bool) {
	switch v.kind {
	case KindDate:
		return v.date, true
	case KindString:
		return ParseDate(v.str)
	default:
		return time.Time{}, false
	}
}

// ParseDate parses a calendar date, rejecting impossible dates such as
// 2023-02-30.
func ParseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindDate:
		return v.date.Equal(other.date)
	default:
		return true
	}
}

// Interface returns v as a plain Go value suitable for encoders: nil, string,
// float64, bool or a YYYY-MM-DD string.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return nil
	}
}

// GoString renders v for debugging and test diffs.
func (v Value) GoString() string {
	if v.kind == KindUnset {
		return "model.Unset()"
	}
	return fmt.Sprintf("model.Value(%s:%v)", v.kind, v.Interface())
}

// Display renders v for humans. Whole numbers drop their fraction.
func (v Value) Display() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindUnset:
		return ""
	default:
		return fmt.Sprint(v.Interface())
	}
}

// MarshalJSON encodes unset as null and dates as YYYY-MM-DD strings.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes null, strings, numbers and booleans. Dates arrive as
// strings; FormField decoding restores them for date fields.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Unset()
		return nil
	}
	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	decoded, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromInterface converts a plain Go value into a Value.
func FromInterface(raw any) (Value, error) {
	switch typed := raw.(type) {
	case nil:
		return Unset(), nil
	case Value:
		return typed, nil
	case string:
		return String(typed), nil
	case bool:
		return Bool(typed), nil
	case float64:
		return Number(typed), nil
	case float32:
		return Number(float64(typed)), nil
	case int:
		return Number(float64(typed)), nil
	case int64:
		return Number(float64(typed)), nil
	case json.Number:
		n, err := typed.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case time.Time:
		return Date(typed), nil
	default:
		return Value{}, fmt.Errorf("model: unsupported value type %T", raw)
	}
}

// Values maps field ids to their current runtime value. A missing key is the
// same as an unset value.
type Values map[string]Value

// Get returns the value for id, or Unset when absent.
func (v Values) Get(id string) Value {
	if v == nil {
		return Unset()
	}
	return v[id]
}

// Clone returns a shallow copy; Value is itself immutable.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Plain converts the map into plain Go values, omitting unset entries.
func (v Values) Plain() map[string]any {
	out := make(map[string]any, len(v))
	for key, value := range v {
		if !value.IsSet() {
			continue
		}
		out[key] = value.Interface()
	}
	return out
}
