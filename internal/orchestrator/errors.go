package orchestrator

import (
	"errors"
	"fmt"
)

// ErrActionInProgress rejects a second invocation for the same (action,
// target) pair while one is in flight. Duplicate intents are refused, never
// queued, so a single logical intent cannot submit twice.
var ErrActionInProgress = errors.New("This action is already in progress for this property")

// ValidationError is a client-detected precondition failure. It settles the
// action before anything reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(field, reason string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

// RefreshError reports a failed post-success state resync. It never
// downgrades the mutation's success; the mutation is already final on the
// ledger.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("state refresh after settled mutation failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
