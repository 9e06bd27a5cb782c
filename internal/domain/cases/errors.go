package cases

import (
	"errors"
	"fmt"
)

// Typed failures reported to callers. None of these are swallowed;
// the router maps each to an HTTP status.
var (
	// ErrNotFound indicates a missing case, record, or failed-mint buffer entry.
	ErrNotFound = errors.New("case not found")
	// ErrUnauthorized indicates the caller is not allowed to perform the call.
	ErrUnauthorized = errors.New("unauthorized caller")
	// ErrInsufficientPayment indicates the attached deposit is below the mint price.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrDeserializationFailed indicates a malformed partial-update payload.
	ErrDeserializationFailed = errors.New("metadata deserialization failed")
	// ErrVersionMismatch indicates a migration attempted from an unexpected schema version.
	ErrVersionMismatch = errors.New("schema version mismatch")
)

// RejectedError reports a semantically invalid transition, e.g. a Log
// webhook submitted to the metadata-update path. The call is a no-op for
// the case but is still observable through logs and the audit trail.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected: %s", e.Reason)
}

// IsRejected reports whether err is a RejectedError.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
