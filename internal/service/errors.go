package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carelane/carelane/internal/domain/patient"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func validationErr(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// ConflictError signals an invariant violation under race or stale state
// (second active admission, discharge of an already-closed episode). The
// caller should re-fetch and retry or surface the conflict.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func conflictErr(err error) error {
	return &ConflictError{Err: err}
}

// InvalidTransitionError reports an illegal status transition. Not
// retryable without a different target state.
type InvalidTransitionError struct {
	From patient.Status
	To   patient.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}
