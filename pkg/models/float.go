// Package models defines the core data structures used throughout marketscan.
package models

import (
	"encoding/json"
	"strconv"
)

// Float is an optional float64. Source data is full of blanks, dashes and
// unparsable cells; those must stay distinguishable from a genuine zero,
// so every derived or scraped numeric field uses Float instead of float64.
type Float struct {
	Value float64
	Valid bool
}

// F wraps a known-good float64 in a valid Float.
func F(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Undefined returns the invalid Float. Zero value works too; this reads better
// at call sites.
func Undefined() Float {
	return Float{}
}

// Positive reports whether the value is defined and strictly greater than zero.
func (f Float) Positive() bool {
	return f.Valid && f.Value > 0
}

// Or returns the value when defined, otherwise def.
func (f Float) Or(def float64) float64 {
	if f.Valid {
		return f.Value
	}
	return def
}

// MarshalJSON encodes undefined values as null so API consumers can render
// "no data" instead of a misleading 0.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON decodes null (or absent via omitempty) as undefined.
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float{}
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return err
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

// String renders the value with two decimals, or "n/a" when undefined.
func (f Float) String() string {
	if !f.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(f.Value, 'f', 2, 64)
}
