package params

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrInvalidType     = errors.New("invalid parameter type")
	ErrUnsupportedType = errors.New("unsupported parameter type")
	ErrInvalidValue    = errors.New("invalid parameter value")
)

// InvalidTypeError reports a type tag that is not of the form [A-Za-z][A-Za-z0-9]*.
type InvalidTypeError struct {
	Type string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid type %q: type must be alphanumeric and start with a letter", e.Type)
}

func (e *InvalidTypeError) Is(target error) bool { return target == ErrInvalidType }

// UnsupportedTypeError reports a well-formed type tag with no registered setter.
type UnsupportedTypeError struct {
	Type   string
	Setter string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type %q: no setter %s on FunctionParameters", e.Type, e.Setter)
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrUnsupportedType }

// InvalidValueError reports a value that the setter for Type could not convert.
type InvalidValueError struct {
	Type  string
	Name  string
	Value any
	Err   error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for %s %s: %v", e.Value, e.Type, e.Name, e.Err)
}

func (e *InvalidValueError) Unwrap() error { return e.Err }

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }
