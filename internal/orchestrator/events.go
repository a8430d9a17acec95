package orchestrator

import "digipay-backend/internal/ledger"

// Action names a user-initiated mutation flow.
type Action string

const (
	ActionPurchase       Action = "purchase_shares"
	ActionSell           Action = "sell_shares"
	ActionListProperty   Action = "list_property"
	ActionUpdateProperty Action = "update_property"
	ActionSetStatus      Action = "set_property_status"
	ActionUpdatePrice    Action = "update_price_per_share"
	ActionWithdraw       Action = "withdraw_funds"
	ActionTransfer       Action = "transfer_shares"
	ActionSetApproval    Action = "set_approval"
	ActionPause          Action = "pause"
	ActionUnpause        Action = "unpause"
)

// State is a position in the per-action lifecycle.
type State string

const (
	StateValidating         State = "validating"
	StateAwaitingConnection State = "awaiting_connection"
	StateSubmitting         State = "submitting"
	StateAwaitingFinality   State = "awaiting_finality"
	StateSettled            State = "settled"
)

// Event is one lifecycle transition. Settled events carry Success and, on
// failure, the error; presentation subscribes to these instead of being
// called back from business logic.
type Event struct {
	Action  Action
	Target  string
	Actor   string
	State   State
	Hash    ledger.TxHash
	Success bool
	Err     error
}

// Subscriber receives lifecycle events synchronously. Subscribers must not
// block; slow consumers should hand off to their own goroutine.
type Subscriber func(Event)
