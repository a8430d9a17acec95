package ledger

import (
	"errors"
	"fmt"
)

// QueryError wraps a read failure (transport or decode). Reads never
// substitute a zero value for a failed call; the error propagates.
type QueryError struct {
	Function string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("ledger query %s: %v", e.Function, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// MutationError is a write rejected at submission or reverted at finality.
// Reason carries the ledger-supplied reason string verbatim.
type MutationError struct {
	Function string
	Hash     TxHash
	Reason   string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("ledger mutation %s failed: %s", e.Function, e.Reason)
}

// AsMutationError unwraps err into a *MutationError if it is one.
func AsMutationError(err error) (*MutationError, bool) {
	var me *MutationError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
