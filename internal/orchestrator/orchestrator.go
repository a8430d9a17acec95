// Package orchestrator sequences every user-initiated mutation through the
// same lifecycle: validation, connection guard, write gateway, settlement
// reporting, and reconciliation of local view state by re-querying the read
// gateway. The state machine is pure relative to presentation; it emits
// typed events and is fully testable without any UI.
package orchestrator

import (
	"context"
	"math/big"
	"strconv"
	"sync"

	"digipay-backend/internal/ethunits"
	"digipay-backend/internal/ledger"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/rs/zerolog/log"
)

// Orchestrator drives mutation lifecycles against the registry gateways.
type Orchestrator struct {
	Reader *registry.Reader
	Writer *registry.Writer

	mu       sync.Mutex
	inflight map[flightKey]struct{}
	subs     []Subscriber
}

type flightKey struct {
	action Action
	target string
}

// New builds an orchestrator over the given gateways.
func New(reader *registry.Reader, writer *registry.Writer) *Orchestrator {
	return &Orchestrator{
		Reader:   reader,
		Writer:   writer,
		inflight: map[flightKey]struct{}{},
	}
}

// Subscribe registers a lifecycle event subscriber. Not safe to call
// concurrently with running actions; subscribe at wiring time.
func (o *Orchestrator) Subscribe(fn Subscriber) {
	o.subs = append(o.subs, fn)
}

// Refreshed is the post-settlement reconciliation snapshot, fetched from the
// ledger rather than assumed from the mutation's post-condition.
type Refreshed struct {
	Property     *registry.Property `json:"property,omitempty"`
	ShareBalance *uint64            `json:"share_balance,omitempty"`
	SharesMinted *uint64            `json:"shares_minted,omitempty"`
	EthBalance   *string            `json:"eth_balance,omitempty"`
	Paused       *bool              `json:"paused,omitempty"`
	Approved     *bool              `json:"approved,omitempty"`
}

// Result is a settled, successful action. RefreshErr is non-fatal: the
// mutation is final even when the follow-up re-query failed.
type Result struct {
	Mutation   *registry.Mutation `json:"mutation"`
	Refreshed  *Refreshed         `json:"refreshed,omitempty"`
	RefreshErr error              `json:"-"`
}

func (o *Orchestrator) emit(ev Event) {
	for _, fn := range o.subs {
		fn(ev)
	}
}

// begin reserves the (action, target) slot. The check and the set happen
// under one lock acquisition; concurrent duplicates are rejected, not queued.
func (o *Orchestrator) begin(k flightKey) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight == nil {
		o.inflight = map[flightKey]struct{}{}
	}
	if _, busy := o.inflight[k]; busy {
		return ErrActionInProgress
	}
	o.inflight[k] = struct{}{}
	return nil
}

func (o *Orchestrator) end(k flightKey) {
	o.mu.Lock()
	delete(o.inflight, k)
	o.mu.Unlock()
}

// run executes the lifecycle shared by all actions. validate may be nil;
// refresh runs only after a successful settlement and its failure is
// reported, not propagated.
func (o *Orchestrator) run(
	ctx context.Context,
	action Action,
	target string,
	acct wallet.Account,
	validate func(ctx context.Context) error,
	write func(ctx context.Context) (*registry.Mutation, error),
	refresh func(ctx context.Context) (*Refreshed, error),
) (*Result, error) {
	k := flightKey{action: action, target: target}
	if err := o.begin(k); err != nil {
		return nil, err
	}
	defer o.end(k)

	base := Event{Action: action, Target: target, Actor: acct.Address}
	settleFailure := func(err error) (*Result, error) {
		ev := base
		ev.State, ev.Err = StateSettled, err
		o.emit(ev)
		return nil, err
	}

	ev := base
	ev.State = StateValidating
	o.emit(ev)
	if validate != nil {
		if err := validate(ctx); err != nil {
			return settleFailure(err)
		}
	}

	ev.State = StateAwaitingConnection
	o.emit(ev)
	if _, err := wallet.Require(acct); err != nil {
		return settleFailure(err)
	}

	ev.State = StateSubmitting
	o.emit(ev)
	wctx := registry.WithSubmitObserver(ctx, func(hash ledger.TxHash) {
		fin := base
		fin.State, fin.Hash = StateAwaitingFinality, hash
		o.emit(fin)
	})
	mutation, err := write(wctx)
	if err != nil {
		return settleFailure(err)
	}

	res := &Result{Mutation: mutation}
	if refresh != nil {
		snap, err := refresh(ctx)
		if err != nil {
			res.RefreshErr = &RefreshError{Err: err}
			log.Warn().Err(err).Str("action", string(action)).Str("target", target).Msg("Post-settlement refresh failed")
		} else {
			res.Refreshed = snap
		}
	}

	ev = base
	ev.State, ev.Hash, ev.Success = StateSettled, mutation.Hash, true
	o.emit(ev)
	return res, nil
}

func propertyTarget(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// connectedFor reports whether identity-dependent validation can run. When
// the wallet is not usable, the check is skipped; the connection guard
// immediately after settles the action with the proper error.
func connectedFor(acct wallet.Account) bool {
	_, err := wallet.Require(acct)
	return err == nil
}

// Purchase buys amount shares of a property. Supply is validated against a
// freshly fetched minted count immediately before submission; this narrows
// the race with competing buyers but the ledger's own rejection remains the
// backstop. The attached currency value is pricePerShare × amount from the
// same fresh read.
func (o *Orchestrator) Purchase(ctx context.Context, acct wallet.Account, propertyID, amount uint64) (*Result, error) {
	var cost *big.Int
	validate := func(ctx context.Context) error {
		if amount == 0 {
			return invalid("amount", "Purchase amount must be a positive integer")
		}
		if !connectedFor(acct) {
			return nil
		}
		prop, err := o.Reader.Property(ctx, propertyID)
		if err != nil {
			return err
		}
		minted, err := o.Reader.SharesMinted(ctx, propertyID)
		if err != nil {
			return err
		}
		available := prop.TotalShares - minted
		if amount > available {
			return invalid("amount", "Only %d shares are available for this property", available)
		}
		cost = ethunits.MulShares(prop.PricePerShare.Ref(), amount)
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.PurchaseShares(ctx, acct, propertyID, amount, cost)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		return o.refreshHolding(ctx, acct.Address, propertyID)
	}
	return o.run(ctx, ActionPurchase, propertyTarget(propertyID), acct, validate, write, refresh)
}

// Sell sells amount shares back to the registry, validated against the
// caller's freshly fetched share balance.
func (o *Orchestrator) Sell(ctx context.Context, acct wallet.Account, propertyID, amount uint64) (*Result, error) {
	validate := func(ctx context.Context) error {
		if amount == 0 {
			return invalid("amount", "Sell amount must be a positive integer")
		}
		if !connectedFor(acct) {
			return nil
		}
		owned, err := o.Reader.ShareBalance(ctx, acct.Address, propertyID)
		if err != nil {
			return err
		}
		if amount > owned {
			return invalid("amount", "You only hold %d shares of this property", owned)
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.SellShares(ctx, acct, propertyID, amount)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		return o.refreshHolding(ctx, acct.Address, propertyID)
	}
	return o.run(ctx, ActionSell, propertyTarget(propertyID), acct, validate, write, refresh)
}

// ListProperty creates a new property listing. The in-flight lock is keyed
// by the actor since the entity does not exist yet.
func (o *Orchestrator) ListProperty(ctx context.Context, acct wallet.Account, params registry.ListParams) (*Result, error) {
	validate := func(ctx context.Context) error {
		if params.Name == "" {
			return invalid("name", "Property name is required")
		}
		if params.Location == "" {
			return invalid("location", "Property location is required")
		}
		if params.TotalShares == 0 {
			return invalid("total_shares", "Total shares must be a positive integer")
		}
		if params.PricePerShare == nil || params.PricePerShare.Sign() <= 0 {
			return invalid("price_per_share", "Price per share must be a positive amount")
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.ListProperty(ctx, acct, params)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		// The ledger assigns the id; the newest property is the one created.
		count, err := o.Reader.PropertyCount(ctx)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return &Refreshed{}, nil
		}
		prop, err := o.Reader.Property(ctx, count-1)
		if err != nil {
			return nil, err
		}
		return &Refreshed{Property: prop}, nil
	}
	return o.run(ctx, ActionListProperty, acct.Address, acct, validate, write, refresh)
}

// UpdateProperty rewrites a property's mutable fields.
func (o *Orchestrator) UpdateProperty(ctx context.Context, acct wallet.Account, propertyID uint64, params registry.UpdateParams) (*Result, error) {
	validate := func(ctx context.Context) error {
		if params.Name == "" {
			return invalid("name", "Property name is required")
		}
		if params.PricePerShare == nil || params.PricePerShare.Sign() <= 0 {
			return invalid("price_per_share", "Price per share must be a positive amount")
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.UpdateProperty(ctx, acct, propertyID, params)
	}
	return o.run(ctx, ActionUpdateProperty, propertyTarget(propertyID), acct, validate, write, o.propertyRefresher(propertyID))
}

// SetStatus flips a property's isActive flag.
func (o *Orchestrator) SetStatus(ctx context.Context, acct wallet.Account, propertyID uint64, active bool) (*Result, error) {
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.SetPropertyStatus(ctx, acct, propertyID, active)
	}
	return o.run(ctx, ActionSetStatus, propertyTarget(propertyID), acct, nil, write, o.propertyRefresher(propertyID))
}

// UpdatePrice sets a property's price per share in wei.
func (o *Orchestrator) UpdatePrice(ctx context.Context, acct wallet.Account, propertyID uint64, price *big.Int) (*Result, error) {
	validate := func(ctx context.Context) error {
		if price == nil || price.Sign() <= 0 {
			return invalid("price_per_share", "Price per share must be a positive amount")
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.UpdatePricePerShare(ctx, acct, propertyID, price)
	}
	return o.run(ctx, ActionUpdatePrice, propertyTarget(propertyID), acct, validate, write, o.propertyRefresher(propertyID))
}

// Withdraw moves amount wei out of a property's escrow, validated against
// the freshly fetched escrow balance.
func (o *Orchestrator) Withdraw(ctx context.Context, acct wallet.Account, propertyID uint64, amount *big.Int) (*Result, error) {
	validate := func(ctx context.Context) error {
		if amount == nil || amount.Sign() <= 0 {
			return invalid("amount", "Withdrawal amount must be a positive amount")
		}
		if !connectedFor(acct) {
			return nil
		}
		escrow, err := o.Reader.PropertyEthBalance(ctx, propertyID)
		if err != nil {
			return err
		}
		if amount.Cmp(escrow) > 0 {
			return invalid("amount", "Withdrawal exceeds the property balance of %s", ethunits.ToDisplay(escrow))
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.WithdrawPropertyFunds(ctx, acct, propertyID, amount)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		snap, err := o.propertyRefresher(propertyID)(ctx)
		if err != nil {
			return nil, err
		}
		escrow, err := o.Reader.PropertyEthBalance(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		s := escrow.String()
		snap.EthBalance = &s
		return snap, nil
	}
	return o.run(ctx, ActionWithdraw, propertyTarget(propertyID), acct, validate, write, refresh)
}

// Transfer moves shares of one property to another identity, with an
// optional opaque data blob.
func (o *Orchestrator) Transfer(ctx context.Context, acct wallet.Account, to string, tokenID, amount uint64, data string) (*Result, error) {
	validate := func(ctx context.Context) error {
		if to == "" {
			return invalid("to", "Recipient address is required")
		}
		if amount == 0 {
			return invalid("amount", "Transfer amount must be a positive integer")
		}
		if !connectedFor(acct) {
			return nil
		}
		owned, err := o.Reader.ShareBalance(ctx, acct.Address, tokenID)
		if err != nil {
			return err
		}
		if amount > owned {
			return invalid("amount", "You only hold %d shares of this property", owned)
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.SafeTransferFrom(ctx, acct, acct.Address, to, tokenID, amount, data)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		return o.refreshHolding(ctx, acct.Address, tokenID)
	}
	return o.run(ctx, ActionTransfer, propertyTarget(tokenID), acct, validate, write, refresh)
}

// SetApproval grants or revokes an operator over the caller's share tokens.
func (o *Orchestrator) SetApproval(ctx context.Context, acct wallet.Account, operator string, approved bool) (*Result, error) {
	validate := func(ctx context.Context) error {
		if operator == "" {
			return invalid("operator", "Operator address is required")
		}
		return nil
	}
	write := func(ctx context.Context) (*registry.Mutation, error) {
		return o.Writer.SetApprovalForAll(ctx, acct, operator, approved)
	}
	refresh := func(ctx context.Context) (*Refreshed, error) {
		got, err := o.Reader.IsApprovedForAll(ctx, acct.Address, operator)
		if err != nil {
			return nil, err
		}
		return &Refreshed{Approved: &got}, nil
	}
	return o.run(ctx, ActionSetApproval, operator, acct, validate, write, refresh)
}

// Pause halts all registry mutations.
func (o *Orchestrator) Pause(ctx context.Context, acct wallet.Account) (*Result, error) {
	return o.setPaused(ctx, acct, ActionPause, o.Writer.Pause)
}

// Unpause resumes registry mutations.
func (o *Orchestrator) Unpause(ctx context.Context, acct wallet.Account) (*Result, error) {
	return o.setPaused(ctx, acct, ActionUnpause, o.Writer.Unpause)
}

func (o *Orchestrator) setPaused(ctx context.Context, acct wallet.Account, action Action, write func(context.Context, wallet.Account) (*registry.Mutation, error)) (*Result, error) {
	refresh := func(ctx context.Context) (*Refreshed, error) {
		paused, err := o.Reader.Paused(ctx)
		if err != nil {
			return nil, err
		}
		return &Refreshed{Paused: &paused}, nil
	}
	return o.run(ctx, action, "contract", acct, nil, func(ctx context.Context) (*registry.Mutation, error) {
		return write(ctx, acct)
	}, refresh)
}

func (o *Orchestrator) propertyRefresher(propertyID uint64) func(context.Context) (*Refreshed, error) {
	return func(ctx context.Context) (*Refreshed, error) {
		prop, err := o.Reader.Property(ctx, propertyID)
		if err != nil {
			return nil, err
		}
		return &Refreshed{Property: prop}, nil
	}
}

// refreshHolding re-fetches the property, the caller's share balance, and
// the minted count after purchase, sell, and transfer settlements.
func (o *Orchestrator) refreshHolding(ctx context.Context, addr string, propertyID uint64) (*Refreshed, error) {
	prop, err := o.Reader.Property(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	balance, err := o.Reader.ShareBalance(ctx, addr, propertyID)
	if err != nil {
		return nil, err
	}
	minted, err := o.Reader.SharesMinted(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return &Refreshed{Property: prop, ShareBalance: &balance, SharesMinted: &minted}, nil
}
