package config

import "fmt"

// ErrorKind distinguishes the two ways loading or validation can fail.
type ErrorKind int

const (
	// MissingVar means a required environment variable was not set.
	MissingVar ErrorKind = iota
	// InvalidValue means a variable was set but failed parsing or validation.
	InvalidValue
)

// String returns the string representation of an ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case MissingVar:
		return "MissingVar"
	case InvalidValue:
		return "InvalidValue"
	default:
		return "Unknown"
	}
}

// Error is returned by Load and Validate.
//
// For MissingVar, Detail is the variable name. For InvalidValue, Detail is a
// human-readable description naming the offending field.
type Error struct {
	Kind   ErrorKind
	Detail string

	// err is the underlying parse error, if any. It is excluded from Is so
	// that errors compare by Kind and Detail only.
	err error
}

// NewMissingVar returns a MissingVar error for the named variable.
func NewMissingVar(name string) *Error {
	return &Error{Kind: MissingVar, Detail: name}
}

// NewInvalidValue returns an InvalidValue error with the given description.
func NewInvalidValue(description string) *Error {
	return &Error{Kind: InvalidValue, Detail: description}
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingVar:
		return fmt.Sprintf("missing environment variable: %s", e.Detail)
	default:
		return fmt.Sprintf("invalid configuration value: %s", e.Detail)
	}
}

// Unwrap returns the underlying parse error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error with the same Kind and Detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Detail == t.Detail
}
