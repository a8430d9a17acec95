package registry

import (
	"context"

	"digipay-backend/internal/ledger"
)

// SubmitObserver is notified with the pending-transaction hash once a
// mutation has been accepted for submission, before finality is awaited.
type SubmitObserver func(hash ledger.TxHash)

type submitObserverKey struct{}

// WithSubmitObserver attaches an observer to ctx for the duration of one
// mutation call.
func WithSubmitObserver(ctx context.Context, fn SubmitObserver) context.Context {
	return context.WithValue(ctx, submitObserverKey{}, fn)
}

func notifySubmitted(ctx context.Context, hash ledger.TxHash) {
	if fn, ok := ctx.Value(submitObserverKey{}).(SubmitObserver); ok && fn != nil {
		fn(hash)
	}
}
