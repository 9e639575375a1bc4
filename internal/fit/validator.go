// Package fit checks measured content against the space reserved for it.
// Checks never abort; they return typed errors carrying the offending field.
package fit

import (
	"errors"
	"fmt"
	"strconv"
)

// ValueCeiling is the fixed upper bound for percentage-like fields.
const ValueCeiling = 100.0

// RenderError is implemented by every fit failure.
type RenderError interface {
	error
	FieldName() string
	Kind() string
}

// FieldTooWideError reports a string that would overflow its panel.
type FieldTooWideError struct {
	Field    string
	Measured int
	Limit    int
}

func (e *FieldTooWideError) Error() string {
	return fmt.Sprintf("The width of the '%s' is %d. The max is only %d. Please consider a shorter '%s'.",
		e.Field, e.Measured, e.Limit, e.Field)
}

func (e *FieldTooWideError) FieldName() string { return e.Field }
func (e *FieldTooWideError) Kind() string      { return "field_too_wide" }

// ValueOutOfRangeError reports a numeric field above its ceiling.
type ValueOutOfRangeError struct {
	Field string
	Value float64
	Limit float64
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("The value of '%s' is %s. The max is only %s. Please give a valid '%s'.",
		e.Field, FormatNumber(e.Value), FormatNumber(e.Limit), e.Field)
}

func (e *ValueOutOfRangeError) FieldName() string { return e.Field }
func (e *ValueOutOfRangeError) Kind() string      { return "value_out_of_range" }

// CheckWidth fails when measured > limit.
func CheckWidth(measured, limit int, field string) error {
	if measured > limit {
		return &FieldTooWideError{Field: field, Measured: measured, Limit: limit}
	}
	return nil
}

// CheckValue fails unless value <= ValueCeiling. NaN fails.
func CheckValue(value float64, field string) error {
	return CheckRange(value, ValueCeiling, field)
}

// CheckRange is CheckValue with an explicit ceiling.
func CheckRange(value, limit float64, field string) error {
	if !(value <= limit) {
		return &ValueOutOfRangeError{Field: field, Value: value, Limit: limit}
	}
	return nil
}

// AsRenderError finds a RenderError in err's chain.
func AsRenderError(err error) (RenderError, bool) {
	var wide *FieldTooWideError
	if errors.As(err, &wide) {
		return wide, true
	}
	var value *ValueOutOfRangeError
	if errors.As(err, &value) {
		return value, true
	}
	return nil, false
}

// FormatNumber prints v in its shortest decimal form: 120, 87.5, -3.25.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
