// Package coerce reads loosely typed JSON fields. The catalog API and the
// persisted cart blob both carry numbers that may arrive as numbers, numeric
// strings or null, so every boundary decodes through these helpers instead of
// trusting the wire shape.
package coerce

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var null = []byte("null")

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}

// text returns the trimmed textual content of a JSON scalar: the unquoted
// value of a string, or the literal of a number/bool.
func text(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	if raw[0] == '{' || raw[0] == '[' {
		return "", false
	}
	return string(raw), true
}

// Decimal parses a number or numeric string. Empty strings, null, objects and
// non-numeric text fail.
func Decimal(raw json.RawMessage) (decimal.Decimal, bool) {
	s, ok := text(raw)
	if !ok || s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NullDecimal is Decimal for nullable fields. Null, absent and empty string
// decode to an invalid NullDecimal with ok=true; garbage reports ok=false.
func NullDecimal(raw json.RawMessage) (decimal.NullDecimal, bool) {
	if s, present := text(raw); !present || s == "" {
		return decimal.NullDecimal{}, true
	}
	d, ok := Decimal(raw)
	if !ok {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

// Int parses an integral number or numeric string. Fractional values and
// values outside the int64 range fail.
func Int(raw json.RawMessage) (int64, bool) {
	d, ok := Decimal(raw)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	b := d.BigInt()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// NullInt is Int for nullable fields; null and empty decode to nil.
func NullInt(raw json.RawMessage) (*int64, bool) {
	if s, present := text(raw); !present || s == "" {
		return nil, true
	}
	v, ok := Int(raw)
	if !ok {
		return nil, false
	}
	return &v, true
}

// Bool accepts true/false, numbers (non-zero is true) and the strings
// "true", "false", "1", "0". Anything else is false.
func Bool(raw json.RawMessage) bool {
	s, ok := text(raw)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true
	case "false", "0", "":
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return !d.IsZero()
}

// String returns string values as-is and number literals as their text.
// Null, objects and arrays yield "".
func String(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isAbsent(raw) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	s, _ := text(raw)
	return s
}

// NullString is String for nullable fields; null decodes to nil.
func NullString(raw json.RawMessage) *string {
	if isAbsent(raw) {
		return nil
	}
	s := String(raw)
	return &s
}
