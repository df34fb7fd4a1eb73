package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a backend record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoEntryNode is returned when a run cannot resolve where to begin.
	ErrNoEntryNode = errors.New("flow has no node to start from")
)

// ValidationError is a local, pre-network failure tied to one field.
type ValidationError struct {
	Field  string // Field name, e.g. "key_value" or "nodes"
	Reason string // Human-readable reason
	Value  any    // Offending value, if any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError without a value.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AggregateError groups several validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the grouped errors to errors.Is/As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// TransportError is a network or HTTP failure.
type TransportError struct {
	Op         string // e.g. "DELETE /credentials/{id}"
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// EvaluationError reports an expression that failed to parse or evaluate.
type EvaluationError struct {
	Expression string
	Message    string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %q: %s", e.Expression, e.Message)
}

// SanitizationWarning informs that fields were stripped from a published component.
// It is not an error.
type SanitizationWarning struct {
	RemovedPaths []string
}

func (w SanitizationWarning) String() string {
	return fmt.Sprintf("removed %d credential field(s): %s", len(w.RemovedPaths), strings.Join(w.RemovedPaths, ", "))
}
