package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// ItemRetrievalError reports a lookup that was expected to return an entity
// but found nothing. Rendered to callers as a 500: the caller asked for
// something the system believes must exist.
type ItemRetrievalError struct {
	Entity string
	ID     string
}

func (e *ItemRetrievalError) Error() string {
	return fmt.Sprintf("%s retrieval failed: no result for id %q", e.Entity, e.ID)
}

// KeyConstraintError reports a duplicate-key violation on a @key attribute.
type KeyConstraintError struct {
	Entity string
	Key    string
	Value  string
}

func (e *KeyConstraintError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Key, e.Value)
}

// ConflictingRequestError reports an attempt to open a second pending status
// change request on the same registration.
type ConflictingRequestError struct {
	TaskID    string
	StudentID string
}

func (e *ConflictingRequestError) Error() string {
	return fmt.Sprintf("a pending status change request already exists for task %s / student %s", e.TaskID, e.StudentID)
}

// InvalidTransitionError reports a consensus operation against a request that
// is not in the state the operation requires.
type InvalidTransitionError struct {
	RequestID string
	From      string
	Op        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in state %q", e.Op, e.RequestID, e.From)
}

// SnapshotIncompleteError aborts a deletion when any portfolio snapshot
// insert failed; nothing may be removed until every affected student's
// completed work is preserved.
type SnapshotIncompleteError struct {
	ProjectID string
	StudentID string
	Err       error
}

func (e *SnapshotIncompleteError) Error() string {
	return fmt.Sprintf("portfolio snapshot for student %s failed, aborting deletion of project %s: %v", e.StudentID, e.ProjectID, e.Err)
}

func (e *SnapshotIncompleteError) Unwrap() error { return e.Err }

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var retrieval *ItemRetrievalError
	if errors.As(err, &retrieval) {
		return Wrap(err, "RETRIEVAL_FAILED", http.StatusInternalServerError, retrieval.Error())
	}
	var key *KeyConstraintError
	if errors.As(err, &key) {
		return Wrap(err, "KEY_CONSTRAINT", http.StatusConflict, key.Error())
	}
	var conflict *ConflictingRequestError
	if errors.As(err, &conflict) {
		return Wrap(err, "CONFLICTING_REQUEST", http.StatusConflict, conflict.Error())
	}
	var transition *InvalidTransitionError
	if errors.As(err, &transition) {
		return Wrap(err, "INVALID_TRANSITION", http.StatusConflict, transition.Error())
	}

	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
