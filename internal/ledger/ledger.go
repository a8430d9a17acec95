// Package ledger is the transport boundary to the remote authoritative
// ledger. Calls are addressed by (contract, function, args) and writes carry
// an optional currency value; finality is observed through a separate
// receipt wait keyed by the pending-transaction hash.
package ledger

import (
	"context"
	"math/big"
)

// Call describes a single contract invocation.
type Call struct {
	Contract string   `json:"-"`
	Function string   `json:"function"`
	Args     []any    `json:"args"`
	From     string   `json:"from,omitempty"`
	Value    *big.Int `json:"-"`
}

// TxHash is the opaque pending-transaction handle returned at submission.
type TxHash string

// Receipt statuses as reported by the gateway.
const (
	StatusSuccess  = "success"
	StatusReverted = "reverted"
)

// Receipt is the finality record for a submitted transaction.
type Receipt struct {
	Hash        TxHash `json:"hash"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	GasUsed     uint64 `json:"gasUsed"`
	Reason      string `json:"reason,omitempty"`
}

// Caller is the request/response interface against the ledger gateway.
// Read decodes the typed result into out. Submit returns the pending
// handle; WaitForReceipt blocks until that handle reaches finality.
type Caller interface {
	Read(ctx context.Context, call Call, out any) error
	Submit(ctx context.Context, call Call) (TxHash, error)
	WaitForReceipt(ctx context.Context, hash TxHash) (*Receipt, error)
}
