// Package domain defines core types, interfaces, and errors for the query agent.
package domain

import "fmt"

// DatasetUnreadableError indicates schema introspection of a dataset failed.
// It is fatal for the current request and never retried.
type DatasetUnreadableError struct {
	Dataset string
	Err     error
}

func (e *DatasetUnreadableError) Error() string {
	return fmt.Sprintf("dataset %q unreadable: %v", e.Dataset, e.Err)
}

func (e *DatasetUnreadableError) Unwrap() error { return e.Err }

// UnknownColumnError indicates a compiled plan references a column absent
// from the resolved schema. The classifier only references columns it
// resolved against the schema, so this is an internal-invariant violation,
// not a user-facing condition.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %s", e.Column)
}

// MalformedFilterValueError indicates a filter's value shape does not match
// its operator's arity contract (e.g. BETWEEN without exactly two values).
type MalformedFilterValueError struct {
	Column  string
	Op      FilterOp
	Message string
}

func (e *MalformedFilterValueError) Error() string {
	return fmt.Sprintf("malformed %s filter on %q: %s", e.Op, e.Column, e.Message)
}

// ValidationError indicates invalid input to a core operation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrDatasetUnreadable creates a DatasetUnreadableError wrapping the
// introspection failure.
func ErrDatasetUnreadable(dataset string, err error) *DatasetUnreadableError {
	return &DatasetUnreadableError{Dataset: dataset, Err: err}
}

// ErrUnknownColumn creates an UnknownColumnError for the given column name.
func ErrUnknownColumn(name string) *UnknownColumnError {
	return &UnknownColumnError{Column: name}
}

// ErrMalformedFilter creates a MalformedFilterValueError with a formatted message.
func ErrMalformedFilter(column string, op FilterOp, format string, args ...interface{}) *MalformedFilterValueError {
	return &MalformedFilterValueError{Column: column, Op: op, Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
