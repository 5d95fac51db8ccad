package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks locally detected, user-correctable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced inventory entry or discount does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates the record already exists (e.g. catalog item already onboarded).
	ErrDuplicate = errors.New("duplicate entry")
	// ErrTransport indicates the external store was unreachable or rejected the call.
	ErrTransport = errors.New("transport failure")
	// ErrUnauthorized indicates the request carries no vendor session.
	ErrUnauthorized = errors.New("vendor session required")
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every invalid field found during a validation pass.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
	cause  error
}

// NewValidationError builds a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends all fields of other, prefixing each field path.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for _, f := range other.Fields {
		field := f.Field
		if prefix != "" {
			field = prefix + "." + field
		}
		e.Add(field, f.Message)
	}
	if other.cause != nil && e.cause == nil {
		e.cause = other.cause
	}
}

// WithCause attaches a second sentinel the error also matches (e.g. ErrNotFound).
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// HasErrors reports whether any field error was recorded.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns nil when no field errors were recorded so callers can return it directly.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrValidation and the optional cause.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// TransportError wraps a failure reported by the external store. The store's
// message is kept verbatim.
type TransportError struct {
	Op  string
	Err error
}

// NewTransportError wraps err unless it is nil or already classified.
func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrValidation) || errors.Is(err, ErrTransport) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ErrTransport.Error()
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying store error.
func (e *TransportError) Unwrap() error { return e.Err }

// Is reports ErrTransport membership.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// AsValidation extracts the ValidationError from err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
