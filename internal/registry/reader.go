package registry

import (
	"context"
	"math/big"

	"digipay-backend/internal/ledger"
)

// Reader is the stateless query side of the registry. Each call is an
// independent query with no caching and no retries; retry policy belongs to
// the caller. Failures surface as *ledger.QueryError, never as a default
// value.
type Reader struct {
	Caller   ledger.Caller
	Contract string
}

func (r *Reader) read(ctx context.Context, fn string, args []any, out any) error {
	return r.Caller.Read(ctx, ledger.Call{Contract: r.Contract, Function: fn, Args: args}, out)
}

// Property returns a single property by id.
func (r *Reader) Property(ctx context.Context, id uint64) (*Property, error) {
	var p Property
	if err := r.read(ctx, "getProperty", []any{id}, &p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// AllProperties returns the full property list in id order.
func (r *Reader) AllProperties(ctx context.Context) ([]Property, error) {
	var props []Property
	if err := r.read(ctx, "getAllProperties", nil, &props); err != nil {
		return nil, err
	}
	for i := range props {
		props[i].ID = uint64(i)
	}
	return props, nil
}

// ActiveProperties returns only properties accepting new purchases.
func (r *Reader) ActiveProperties(ctx context.Context) ([]Property, error) {
	var props []Property
	if err := r.read(ctx, "getActiveProperties", nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// PropertyCount returns the total number of properties ever listed.
func (r *Reader) PropertyCount(ctx context.Context) (uint64, error) {
	var n ledger.BigInt
	if err := r.read(ctx, "getPropertyCount", nil, &n); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// PropertyEthBalance returns the currency held by the property's escrow.
func (r *Reader) PropertyEthBalance(ctx context.Context, id uint64) (*big.Int, error) {
	var b ledger.BigInt
	if err := r.read(ctx, "getPropertyEthBalance", []any{id}, &b); err != nil {
		return nil, err
	}
	return b.Ref(), nil
}

// SharesMinted returns the cumulative shares ever purchased for a property.
func (r *Reader) SharesMinted(ctx context.Context, id uint64) (uint64, error) {
	var n ledger.BigInt
	if err := r.read(ctx, "getPropertySharesMinted", []any{id}, &n); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// UserProperties returns the ids of properties addr holds any shares in.
func (r *Reader) UserProperties(ctx context.Context, addr string) ([]uint64, error) {
	var raw []ledger.BigInt
	if err := r.read(ctx, "getUserProperties", []any{addr}, &raw); err != nil {
		return nil, err
	}
	ids := make([]uint64, len(raw))
	for i := range raw {
		ids[i] = raw[i].Uint64()
	}
	return ids, nil
}

// ShareBalance returns addr's share count for a property.
func (r *Reader) ShareBalance(ctx context.Context, addr string, id uint64) (uint64, error) {
	var n ledger.BigInt
	if err := r.read(ctx, "getUserShareBalance", []any{addr, id}, &n); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// BalanceOf returns the raw token balance for an identity/token pair. The
// share itself is a fungible-per-property token, so this equals ShareBalance
// when tokenID is a property id.
func (r *Reader) BalanceOf(ctx context.Context, addr string, tokenID uint64) (uint64, error) {
	var n ledger.BigInt
	if err := r.read(ctx, "balanceOf", []any{addr, tokenID}, &n); err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// IsApprovedForAll returns the operator-approval flag for an identity pair.
func (r *Reader) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	var approved bool
	if err := r.read(ctx, "isApprovedForAll", []any{owner, operator}, &approved); err != nil {
		return false, err
	}
	return approved, nil
}

// Paused returns the contract pause flag.
func (r *Reader) Paused(ctx context.Context) (bool, error) {
	var paused bool
	if err := r.read(ctx, "paused", nil, &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// ContractOwner returns the contract administrator identity.
func (r *Reader) ContractOwner(ctx context.Context) (string, error) {
	var owner string
	if err := r.read(ctx, "owner", nil, &owner); err != nil {
		return "", err
	}
	return owner, nil
}
