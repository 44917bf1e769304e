package airtable

import (
	"fmt"
	"strings"
	"time"
)

// Field accessors tolerate missing or mistyped cells: the store returns
// whatever staff typed into the sheet, so absent values decay to zero
// values instead of raising.

// String returns the named field as a string, or "" when absent.
func (r Record) String(name string) string {
	switch v := r.Fields[name].(type) {
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return ""
	}
}

// Bool returns the named field as a bool, or false when absent.
func (r Record) Bool(name string) bool {
	v, _ := r.Fields[name].(bool)
	return v
}

// Float returns the named field as a float64, or 0 when absent.
func (r Record) Float(name string) float64 {
	v, _ := r.Fields[name].(float64)
	return v
}

// Int returns the named field as an int, or 0 when absent.
func (r Record) Int(name string) int {
	return int(r.Float(name))
}

// Time parses the named field as RFC3339, or the zero time when absent
// or malformed. Missing timestamps rank as lowest priority, never error.
func (r Record) Time(name string) time.Time {
	raw, ok := r.Fields[name].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

// EscapeFormulaString quotes a value for interpolation into a
// filterByFormula expression.
func EscapeFormulaString(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
