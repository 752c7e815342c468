// Package apperr defines the error taxonomy shared by the timesheet services.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional update matched no rows
	ErrConflict = errors.New("record changed concurrently")
)

// ValidationError reports malformed command input. Nothing has been written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation creates a ValidationError for a field
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PreconditionError reports a well-formed command that the current state forbids.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NewPrecondition creates a PreconditionError with a human-readable reason
func NewPrecondition(reason string) *PreconditionError {
	return &PreconditionError{Reason: reason}
}

// UpstreamError wraps a scheduling provider failure.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("scheduling provider %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstream wraps err as an UpstreamError for op
func NewUpstream(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

// DerivedWriteWarning records a flag or edit-log write that failed after the
// primary entry/header write was committed. It is collected, never returned
// as the failure of the primary operation.
type DerivedWriteWarning struct {
	Kind   string
	TimeID int64
	Err    error
}

func (w *DerivedWriteWarning) Error() string {
	return fmt.Sprintf("%s write for time record %d failed: %v", w.Kind, w.TimeID, w.Err)
}

func (w *DerivedWriteWarning) Unwrap() error {
	return w.Err
}

// Warning kinds
const (
	WarningFlags   = "flag"
	WarningEditLog = "edit log"
	WarningTotals  = "header totals"
)

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsPrecondition reports whether err is or wraps a PreconditionError
func IsPrecondition(err error) bool {
	var p *PreconditionError
	return errors.As(err, &p)
}

// IsUpstream reports whether err is or wraps an UpstreamError
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}
