package codec

import (
	"errors"
	"fmt"
)

// ErrUnsupportedValue is wrapped by a ConversionError when a Go value has no
// wire representation for the requested type.
var ErrUnsupportedValue = errors.New("unsupported value")

// ConversionError reports a value that failed its declared type's bounds or grammar.
//
// The underlying parse error (if any) can be accessed via errors.Unwrap.
type ConversionError struct {
	Type  string // type name, e.g. "int"
	Input any    // offending input (wire token or native value)
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %#v to %s: %v", e.Input, e.Type, e.Err)
	}
	return fmt.Sprintf("cannot convert %#v to %s", e.Input, e.Type)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsConversionError reports whether err is, or wraps, a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

func convErr(typ string, input any, err error) *ConversionError {
	return &ConversionError{Type: typ, Input: input, Err: err}
}
