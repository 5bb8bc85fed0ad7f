package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyPrompt = errors.New("prompt is required")
)

// ValidationError reports a payload the remote service refused. Not retried.
type ValidationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return "validation failed"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthorizationError reports that the caller lacks entitlement, for example an
// exhausted quota. Callers route it to an upgrade flow instead of a generic error.
type AuthorizationError struct {
	StatusCode int
	Message    string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("not authorized (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("not authorized (status %d)", e.StatusCode)
}

// TransportError covers network failures and unexpected server responses.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// PollError is a transient failure while fetching job status.
type PollError struct {
	JobID   string
	Attempt int
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll job %s (attempt %d): %v", e.JobID, e.Attempt, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// TrackingError means polling was abandoned; the job is reported as failed.
type TrackingError struct {
	JobID  string
	Reason string
	Err    error
}

func (e *TrackingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tracking job %s abandoned: %s: %v", e.JobID, e.Reason, e.Err)
	}
	return fmt.Sprintf("tracking job %s abandoned: %s", e.JobID, e.Reason)
}

func (e *TrackingError) Unwrap() error { return e.Err }

// IsAuthorization reports whether err carries an AuthorizationError.
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
