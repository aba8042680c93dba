package etf

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/danderson/etf/schema"
)

// ErrTooDeep is the error returned when a term nests compounds more
// deeply than [SessionOptions.MaxDepth] allows.
var ErrTooDeep = errors.New("term nesting exceeds maximum depth")

// TypeError is the error returned when a Go type cannot be
// represented in the external term format.
type TypeError struct {
	// Type is the name of the type that caused the error.
	Type string
	// Reason is an explanation of why the type isn't representable.
	Reason error
}

func (e TypeError) Error() string {
	return fmt.Sprintf("etf cannot represent %s: %s", e.Type, e.Reason)
}

func (e TypeError) Unwrap() error {
	return e.Reason
}

func typeErr(t reflect.Type, reason string, args ...any) error {
	ts := "nil"
	if t != nil {
		ts = t.String()
	}
	return TypeError{ts, fmt.Errorf(reason, args...)}
}

// DecodeError is the error returned when input does not match the
// schema it is decoded against.
type DecodeError struct {
	// Offset is the input position of the value that failed to
	// decode.
	Offset int
	// Schema is the expected schema of the value that failed to
	// decode.
	Schema schema.Schema
	// Err is the underlying failure, usually one of the errors
	// defined by package fragments.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s at offset %d: %v", e.Schema, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ArityError is the error returned in strict arity mode when a tuple
// or mixed list header declares a different number of elements than
// its schema.
type ArityError struct {
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("header declares %d elements, schema has %d", e.Got, e.Want)
}

// RangeError is the error returned when a value does not fit in its
// destination: an unsigned integer too large for an integer term
// when encoding, or a decoded integer too large for its Go type when
// unmarshaling.
type RangeError struct {
	// Value is the value that doesn't fit.
	Value any
	// Type is the name of the destination type.
	Type string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %v out of range for %s", e.Value, e.Type)
}
