// Package ledgererr defines the error taxonomy shared by the ledger packages.
//
// Four classes of failure exist: validation (rejected before any append),
// consistency (the ledger violates the zero-sum invariant, fatal), lock
// timeout (the group write section was busy, retryable) and not found.
// Match them with errors.Is against the class sentinels, or errors.As against
// the typed errors for details.
package ledgererr

import (
	"errors"
	"fmt"
	"time"
)

// Class sentinels.
var (
	ErrValidation  = errors.New("ledger: validation failed")
	ErrConsistency = errors.New("ledger: consistency violated")
	ErrLockTimeout = errors.New("ledger: write section busy")
	ErrNotFound    = errors.New("ledger: not found")
)

// Validation reasons. A ValidationError matches both ErrValidation and its reason.
var (
	ErrNoParticipants       = errors.New("at least one participant required")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrNonPositiveTotal     = errors.New("amount must be positive")
	ErrAmountTooLarge       = errors.New("amount exceeds maximum")
	ErrWeightCount          = errors.New("one weight required per participant")
	ErrNegativeWeight       = errors.New("weights cannot be negative")
	ErrPercentSum           = errors.New("percentages must sum to 100")
	ErrCustomSum            = errors.New("custom shares must sum to total")
	ErrNotMember            = errors.New("not a member of the group")
	ErrUnknownMode          = errors.New("unknown split mode")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrSamePayerPayee       = errors.New("payer and payee must be different members")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrMissingField         = errors.New("required field missing")
	ErrGroupFull            = errors.New("group is full")
	ErrMemberExists         = errors.New("member already in group")
	ErrIdempotencyConflict  = errors.New("idempotency key reused with a different request")
)

// ValidationError describes a rejected input.
type ValidationError struct {
	Field  string
	Reason error
	Detail string
}

// Invalid builds a ValidationError.
func Invalid(field string, reason error, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ledger: invalid %s: %v", e.Field, e.Reason)
	}
	return fmt.Sprintf("ledger: invalid %s: %v (%s)", e.Field, e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}

// ConsistencyError reports a ledger that violates the zero-sum invariant.
// It is never corrected silently.
type ConsistencyError struct {
	GroupID string
	Detail  string
	Sum     int64
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("ledger: consistency violated in group %s: %s (sum %d)", e.GroupID, e.Detail, e.Sum)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// LockTimeoutError reports that a group's write section could not be
// acquired within the allowed wait.
type LockTimeoutError struct {
	GroupID string
	Waited  time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("ledger: write section for group %s busy after %s", e.GroupID, e.Waited)
}

func (e *LockTimeoutError) Unwrap() error { return ErrLockTimeout }

// NotFoundError reports an unknown group or member.
type NotFoundError struct {
	Kind string
	ID   string
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger: %s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IsRetryable reports whether the caller may retry the whole operation.
// Only lock timeouts qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}
