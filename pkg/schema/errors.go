package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a BuildError.
type ErrorKind int

const (
	// KindMissingField means a mandatory field was never set.
	KindMissingField ErrorKind = iota

	// KindInvalidValue means a field was set to a value that violates a
	// constraint.
	KindInvalidValue
)

// Sentinel errors matched by BuildError.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrInvalidValue = errors.New("invalid value")
)

// BuildError is returned by every Build method. Field is a dotted path when
// the failure comes from a nested builder (e.g. "parameters.properties.a.type").
type BuildError struct {
	Kind   ErrorKind
	Field  string
	Reason string
}

// MissingField creates a BuildError for a mandatory field that was never set.
func MissingField(field string) *BuildError {
	return &BuildError{Kind: KindMissingField, Field: field}
}

// InvalidValue creates a BuildError for a field whose value violates a constraint.
func InvalidValue(field, reason string) *BuildError {
	return &BuildError{Kind: KindInvalidValue, Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Kind == KindMissingField {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrMissingField and ErrInvalidValue.
func (e *BuildError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Kind == KindMissingField
	case ErrInvalidValue:
		return e.Kind == KindInvalidValue
	}
	return false
}

// nest prefixes the field path of a nested builder error. Errors that are not
// BuildErrors pass through unchanged.
func nest(prefix string, err error) error {
	var be *BuildError
	if !errors.As(err, &be) {
		return err
	}
	return &BuildError{Kind: be.Kind, Field: prefix + "." + be.Field, Reason: be.Reason}
}
