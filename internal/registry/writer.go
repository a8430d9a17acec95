package registry

import (
	"context"
	"math/big"

	"digipay-backend/internal/ledger"
	"digipay-backend/internal/wallet"
)

// Writer is the mutation side of the registry. Every mutation runs the same
// lifecycle: connection guard, submit the intent, await finality, return a
// Mutation only once the receipt is observed. The writer never retries; a
// blind retry after an ambiguous failure could double-spend the caller's
// intent against changed ledger state.
type Writer struct {
	Caller   ledger.Caller
	Contract string
}

func (w *Writer) mutate(ctx context.Context, acct wallet.Account, fn string, args []any, value *big.Int) (*Mutation, error) {
	a, err := wallet.Require(acct)
	if err != nil {
		return nil, err
	}

	hash, err := w.Caller.Submit(ctx, ledger.Call{
		Contract: w.Contract,
		Function: fn,
		Args:     args,
		From:     a.Address,
		Value:    value,
	})
	if err != nil {
		return nil, err
	}
	notifySubmitted(ctx, hash)

	rcpt, err := w.Caller.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rcpt.Status != ledger.StatusSuccess {
		reason := rcpt.Reason
		if reason == "" {
			reason = "transaction reverted"
		}
		return nil, &ledger.MutationError{Function: fn, Hash: hash, Reason: reason}
	}

	return &Mutation{Success: true, Hash: hash, Receipt: rcpt}, nil
}

// ListProperty creates a new property; the ledger assigns its id.
func (w *Writer) ListProperty(ctx context.Context, acct wallet.Account, p ListParams) (*Mutation, error) {
	return w.mutate(ctx, acct, "listProperty", []any{
		p.Name, p.Location, p.Description, p.ImageURI,
		p.TotalShares, p.PricePerShare, p.RentalYield,
	}, nil)
}

// UpdateProperty rewrites the owner-mutable fields of a property.
func (w *Writer) UpdateProperty(ctx context.Context, acct wallet.Account, id uint64, p UpdateParams) (*Mutation, error) {
	return w.mutate(ctx, acct, "updateProperty", []any{
		id, p.Name, p.Location, p.Description, p.ImageURI,
		p.PricePerShare, p.RentalYield, p.IsActive,
	}, nil)
}

// SetPropertyStatus flips the isActive flag gating new purchases.
func (w *Writer) SetPropertyStatus(ctx context.Context, acct wallet.Account, id uint64, active bool) (*Mutation, error) {
	return w.mutate(ctx, acct, "setPropertyStatus", []any{id, active}, nil)
}

// UpdatePricePerShare sets a property's share price in wei.
func (w *Writer) UpdatePricePerShare(ctx context.Context, acct wallet.Account, id uint64, price *big.Int) (*Mutation, error) {
	return w.mutate(ctx, acct, "updatePricePerShare", []any{id, ledger.NewBigInt(price)}, nil)
}

// PurchaseShares buys amount shares, attaching value (pricePerShare×amount,
// computed by the caller) as the accompanying currency.
func (w *Writer) PurchaseShares(ctx context.Context, acct wallet.Account, id, amount uint64, value *big.Int) (*Mutation, error) {
	return w.mutate(ctx, acct, "purchaseShares", []any{id, amount}, value)
}

// SellShares sells amount shares back to the registry.
func (w *Writer) SellShares(ctx context.Context, acct wallet.Account, id, amount uint64) (*Mutation, error) {
	return w.mutate(ctx, acct, "sellShares", []any{id, amount}, nil)
}

// WithdrawPropertyFunds withdraws amount wei from a property's escrow.
func (w *Writer) WithdrawPropertyFunds(ctx context.Context, acct wallet.Account, id uint64, amount *big.Int) (*Mutation, error) {
	return w.mutate(ctx, acct, "withdrawPropertyFunds", []any{id, ledger.NewBigInt(amount)}, nil)
}

// SetApprovalForAll grants or revokes an operator over all of the caller's
// share tokens.
func (w *Writer) SetApprovalForAll(ctx context.Context, acct wallet.Account, operator string, approved bool) (*Mutation, error) {
	return w.mutate(ctx, acct, "setApprovalForAll", []any{operator, approved}, nil)
}

// SafeTransferFrom moves amount share tokens of one property between two
// identities, with an attached opaque data blob (default empty).
func (w *Writer) SafeTransferFrom(ctx context.Context, acct wallet.Account, from, to string, tokenID, amount uint64, data string) (*Mutation, error) {
	if data == "" {
		data = "0x"
	}
	return w.mutate(ctx, acct, "safeTransferFrom", []any{from, to, tokenID, amount, data}, nil)
}

// Pause halts all registry mutations (administrator only).
func (w *Writer) Pause(ctx context.Context, acct wallet.Account) (*Mutation, error) {
	return w.mutate(ctx, acct, "pause", nil, nil)
}

// Unpause resumes registry mutations (administrator only).
func (w *Writer) Unpause(ctx context.Context, acct wallet.Account) (*Mutation, error) {
	return w.mutate(ctx, acct, "unpause", nil, nil)
}
