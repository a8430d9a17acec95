package orchestrator

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"digipay-backend/internal/ledger"
	"digipay-backend/internal/ledger/ledgertest"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyer = wallet.Account{Address: "0xbuyer", Connected: true}
var propOwner = wallet.Account{Address: "0xowner", Connected: true}

func eth(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test amount " + s)
	}
	return v
}

// Property 0: totalShares=1000, minted=800, price 0.01.
func setup() (*Orchestrator, *ledgertest.Fake) {
	f := &ledgertest.Fake{Admin: "0xadmin"}
	f.AddProperty(&ledgertest.Property{
		Name: "Harbor Lofts", Location: "Lisbon",
		TotalShares: 1000, PricePerShare: eth("10000000000000000"),
		RentalYield: 550, Owner: "0xowner", Active: true,
		Minted: 800, Escrow: eth("2000000000000000000"),
	})
	reader := &registry.Reader{Caller: f, Contract: "0xreg"}
	writer := &registry.Writer{Caller: f, Contract: "0xreg"}
	return New(reader, writer), f
}

func TestPurchase_Succeeds(t *testing.T) {
	o, f := setup()
	var events []Event
	o.Subscribe(func(ev Event) { events = append(events, ev) })

	res, err := o.Purchase(context.Background(), buyer, 0, 150)
	require.NoError(t, err)
	require.NotNil(t, res.Mutation)
	assert.True(t, res.Mutation.Success)
	assert.NoError(t, res.RefreshErr)

	// Minted and balance each increased by exactly the purchased amount,
	// and the refreshed snapshot reflects ledger truth.
	assert.Equal(t, uint64(950), f.Properties[0].Minted)
	assert.Equal(t, uint64(150), f.ShareBalance("0xbuyer", 0))
	require.NotNil(t, res.Refreshed)
	assert.Equal(t, uint64(150), *res.Refreshed.ShareBalance)
	assert.Equal(t, uint64(950), *res.Refreshed.SharesMinted)
	assert.Equal(t, "Harbor Lofts", res.Refreshed.Property.Name)

	states := []State{}
	for _, ev := range events {
		states = append(states, ev.State)
	}
	assert.Equal(t, []State{StateValidating, StateAwaitingConnection, StateSubmitting, StateAwaitingFinality, StateSettled}, states)
	last := events[len(events)-1]
	assert.True(t, last.Success)
	assert.NotEmpty(t, last.Hash)
}

// A buy exceeding totalShares-sharesMinted settles at validation and never
// reaches the ledger.
func TestPurchase_ExceedsSupply(t *testing.T) {
	o, f := setup()

	_, err := o.Purchase(context.Background(), buyer, 0, 300)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Only 200 shares are available for this property", ve.Reason)
	assert.Equal(t, uint64(800), f.Properties[0].Minted)
	assert.Equal(t, uint64(0), f.ShareBalance("0xbuyer", 0))
}

func TestPurchase_ZeroAmount(t *testing.T) {
	o, _ := setup()
	_, err := o.Purchase(context.Background(), buyer, 0, 0)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "amount", ve.Field)
}

func TestPurchase_NotConnected(t *testing.T) {
	o, f := setup()
	var settled Event
	o.Subscribe(func(ev Event) {
		if ev.State == StateSettled {
			settled = ev
		}
	})

	_, err := o.Purchase(context.Background(), wallet.Account{}, 0, 10)
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.ErrorIs(t, settled.Err, wallet.ErrNotConnected)
	assert.Equal(t, uint64(800), f.Properties[0].Minted)
}

func TestSell_ExceedsBalance(t *testing.T) {
	o, f := setup()
	f.SetBalance("0xbuyer", 0, 20)

	_, err := o.Sell(context.Background(), buyer, 0, 25)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "You only hold 20 shares of this property", ve.Reason)
	assert.Equal(t, uint64(20), f.ShareBalance("0xbuyer", 0))
}

func TestSell_Succeeds(t *testing.T) {
	o, f := setup()
	f.SetBalance("0xbuyer", 0, 20)

	res, err := o.Sell(context.Background(), buyer, 0, 5)
	require.NoError(t, err)
	assert.True(t, res.Mutation.Success)
	assert.Equal(t, uint64(15), f.ShareBalance("0xbuyer", 0))
	assert.Equal(t, uint64(15), *res.Refreshed.ShareBalance)
}

// A second purchase for the same property while the first awaits finality is
// rejected with ErrActionInProgress; the first completes normally.
func TestPurchase_DuplicateInFlight(t *testing.T) {
	o, f := setup()
	gate := make(chan struct{})
	f.WaitGate = gate

	type outcome struct {
		res *Result
		err error
	}
	first := make(chan outcome, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := o.Purchase(context.Background(), buyer, 0, 150)
		first <- outcome{res, err}
	}()

	// Wait until the first action holds the in-flight slot.
	require.Eventually(t, func() bool {
		err := o.begin(flightKey{action: ActionPurchase, target: "0"})
		if err == nil {
			o.end(flightKey{action: ActionPurchase, target: "0"})
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	_, err := o.Purchase(context.Background(), buyer, 0, 10)
	assert.ErrorIs(t, err, ErrActionInProgress)

	close(gate)
	wg.Wait()
	got := <-first
	require.NoError(t, got.err)
	assert.True(t, got.res.Mutation.Success)
	assert.Equal(t, uint64(950), f.Properties[0].Minted)
}

func TestPurchase_RevertSettlesFailure(t *testing.T) {
	o, f := setup()
	f.RevertWith = "execution reverted"
	var settled Event
	o.Subscribe(func(ev Event) {
		if ev.State == StateSettled {
			settled = ev
		}
	})

	_, err := o.Purchase(context.Background(), buyer, 0, 10)
	me, ok := ledger.AsMutationError(err)
	require.True(t, ok)
	assert.Equal(t, "execution reverted", me.Reason)
	assert.False(t, settled.Success)
}

// A refresh failure after settlement does not downgrade the mutation.
func TestPurchase_RefreshFailureNonFatal(t *testing.T) {
	o, f := setup()
	// Validation's minted read succeeds; the post-settlement re-query fails.
	f.FailMeta = map[uint64]bool{0: true}
	f.AllowReads = map[string]int{"getPropertySharesMinted": 1}

	res, err := o.Purchase(context.Background(), buyer, 0, 10)
	require.NoError(t, err)
	assert.True(t, res.Mutation.Success)
	var re *RefreshError
	require.ErrorAs(t, res.RefreshErr, &re)
	assert.Nil(t, res.Refreshed)
	// The mutation itself is final on the ledger.
	assert.Equal(t, uint64(810), f.Properties[0].Minted)
}

func TestUpdatePrice(t *testing.T) {
	o, f := setup()

	_, err := o.UpdatePrice(context.Background(), propOwner, 0, big.NewInt(0))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	res, err := o.UpdatePrice(context.Background(), propOwner, 0, eth("20000000000000000"))
	require.NoError(t, err)
	assert.True(t, res.Mutation.Success)
	assert.Equal(t, "20000000000000000", f.Properties[0].PricePerShare.String())
	assert.Equal(t, "20000000000000000", res.Refreshed.Property.PricePerShare.String())
}

func TestListProperty(t *testing.T) {
	o, f := setup()

	_, err := o.ListProperty(context.Background(), propOwner, registry.ListParams{Location: "Faro"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	res, err := o.ListProperty(context.Background(), propOwner, registry.ListParams{
		Name: "Cedar Court", Location: "Faro", TotalShares: 2000,
		PricePerShare: ledger.NewBigInt(eth("5000000000000000")), RentalYield: 420,
	})
	require.NoError(t, err)
	require.Len(t, f.Properties, 2)
	require.NotNil(t, res.Refreshed.Property)
	assert.Equal(t, "Cedar Court", res.Refreshed.Property.Name)
	assert.Equal(t, uint64(1), res.Refreshed.Property.ID)
}

func TestWithdraw_ExceedsEscrow(t *testing.T) {
	o, _ := setup()

	_, err := o.Withdraw(context.Background(), propOwner, 0, eth("3000000000000000000"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestWithdraw_Succeeds(t *testing.T) {
	o, f := setup()

	res, err := o.Withdraw(context.Background(), propOwner, 0, eth("500000000000000000"))
	require.NoError(t, err)
	assert.True(t, res.Mutation.Success)
	assert.Equal(t, "1500000000000000000", f.Properties[0].Escrow.String())
	require.NotNil(t, res.Refreshed.EthBalance)
	assert.Equal(t, "1500000000000000000", *res.Refreshed.EthBalance)
}

func TestTransfer(t *testing.T) {
	o, f := setup()
	f.SetBalance("0xbuyer", 0, 30)

	_, err := o.Transfer(context.Background(), buyer, "", 0, 5, "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	res, err := o.Transfer(context.Background(), buyer, "0xfriend", 0, 5, "")
	require.NoError(t, err)
	assert.True(t, res.Mutation.Success)
	assert.Equal(t, uint64(25), f.ShareBalance("0xbuyer", 0))
	assert.Equal(t, uint64(5), f.ShareBalance("0xfriend", 0))
}

func TestPauseUnpause(t *testing.T) {
	o, f := setup()
	admin := wallet.Account{Address: "0xadmin", Connected: true}

	res, err := o.Pause(context.Background(), admin)
	require.NoError(t, err)
	require.NotNil(t, res.Refreshed.Paused)
	assert.True(t, *res.Refreshed.Paused)
	assert.True(t, f.PausedFlag)

	res, err = o.Unpause(context.Background(), admin)
	require.NoError(t, err)
	assert.False(t, *res.Refreshed.Paused)
}

func TestSetApproval(t *testing.T) {
	o, f := setup()

	res, err := o.SetApproval(context.Background(), buyer, "0xoperator", true)
	require.NoError(t, err)
	require.NotNil(t, res.Refreshed.Approved)
	assert.True(t, *res.Refreshed.Approved)
	assert.True(t, f.Approvals["0xbuyer"]["0xoperator"])
}
