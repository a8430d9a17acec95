// Package ledgertest provides an in-memory ledger.Caller that simulates the
// property share registry contract for tests. It enforces the same policies
// the real contract does (supply ceiling, owner-only mutations, pause flag)
// so gateway and orchestrator tests run against honest ledger behavior.
package ledgertest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"digipay-backend/internal/ledger"
)

// Property is the simulated on-chain record plus its derived metadata.
type Property struct {
	Name          string
	Location      string
	Description   string
	ImageURI      string
	TotalShares   uint64
	PricePerShare *big.Int
	RentalYield   uint64
	Owner         string
	Active        bool

	Minted uint64
	Escrow *big.Int
}

// Fake is an in-memory ledger. The zero value is usable; fields are safe to
// set before first use.
type Fake struct {
	mu sync.Mutex

	Properties []*Property
	Balances   map[string]map[uint64]uint64 // addr -> property id -> shares
	Approvals  map[string]map[string]bool   // owner -> operator -> approved
	PausedFlag bool
	Admin      string

	// Fault injection.
	FailFunctions map[string]bool        // read function name -> fail
	FailProperty  map[uint64]bool        // getProperty / getUserShareBalance per id
	FailMeta      map[uint64]bool        // sharesMinted / ethBalance per id
	AllowReads    map[string]int         // successful reads granted per function before Fail* applies
	SubmitReject  string                 // non-empty: reject every submit with this reason
	RevertWith    string                 // non-empty: accept submit, revert at finality
	WaitGate      chan struct{}          // non-nil: WaitForReceipt blocks until closed

	receipts map[ledger.TxHash]*ledger.Receipt
	nonce    int
}

func (f *Fake) init() {
	if f.Balances == nil {
		f.Balances = map[string]map[uint64]uint64{}
	}
	if f.Approvals == nil {
		f.Approvals = map[string]map[string]bool{}
	}
	if f.receipts == nil {
		f.receipts = map[ledger.TxHash]*ledger.Receipt{}
	}
}

// AddProperty appends a property and returns its id.
func (f *Fake) AddProperty(p *Property) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.Escrow == nil {
		p.Escrow = new(big.Int)
	}
	f.Properties = append(f.Properties, p)
	return uint64(len(f.Properties) - 1)
}

// SetBalance seeds a holding directly, bypassing purchase policy.
func (f *Fake) SetBalance(addr string, id, shares uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()
	if f.Balances[addr] == nil {
		f.Balances[addr] = map[uint64]uint64{}
	}
	f.Balances[addr][id] = shares
}

// ShareBalance reads a holding without going through the wire codec.
func (f *Fake) ShareBalance(addr string, id uint64) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Balances[addr][id]
}

func fail(fn string, msg string, args ...any) error {
	return &ledger.QueryError{Function: fn, Err: fmt.Errorf(msg, args...)}
}

// shouldFail applies the AllowReads grace counter to an injected fault.
// Callers hold f.mu.
func (f *Fake) shouldFail(fn string, cond bool) bool {
	if !cond {
		return false
	}
	if n := f.AllowReads[fn]; n > 0 {
		f.AllowReads[fn] = n - 1
		return false
	}
	return true
}

// Read answers queries from in-memory state.
func (f *Fake) Read(ctx context.Context, call ledger.Call, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()

	fn := call.Function
	if f.shouldFail(fn, f.FailFunctions[fn]) {
		return fail(fn, "injected read failure")
	}

	var result any
	switch fn {
	case "getProperty":
		id := argUint(call.Args, 0)
		if f.shouldFail(fn, f.FailProperty[id]) {
			return fail(fn, "injected failure for property %d", id)
		}
		p, err := f.property(fn, id)
		if err != nil {
			return err
		}
		result = wireProperty(id, p)
	case "getAllProperties":
		all := make([]map[string]any, len(f.Properties))
		for i, p := range f.Properties {
			all[i] = wireProperty(uint64(i), p)
		}
		result = all
	case "getActiveProperties":
		active := []map[string]any{}
		for i, p := range f.Properties {
			if p.Active {
				active = append(active, wireProperty(uint64(i), p))
			}
		}
		result = active
	case "getPropertyCount":
		result = fmt.Sprint(len(f.Properties))
	case "getPropertyEthBalance":
		id := argUint(call.Args, 0)
		if f.shouldFail(fn, f.FailMeta[id]) {
			return fail(fn, "injected failure for property %d", id)
		}
		p, err := f.property(fn, id)
		if err != nil {
			return err
		}
		result = p.Escrow.String()
	case "getPropertySharesMinted":
		id := argUint(call.Args, 0)
		if f.shouldFail(fn, f.FailMeta[id]) {
			return fail(fn, "injected failure for property %d", id)
		}
		p, err := f.property(fn, id)
		if err != nil {
			return err
		}
		result = fmt.Sprint(p.Minted)
	case "getUserProperties":
		addr := argString(call.Args, 0)
		ids := []string{}
		for id := range f.Properties {
			if f.Balances[addr][uint64(id)] > 0 {
				ids = append(ids, fmt.Sprint(id))
			}
		}
		result = ids
	case "getUserShareBalance":
		addr, id := argString(call.Args, 0), argUint(call.Args, 1)
		if f.shouldFail(fn, f.FailProperty[id]) {
			return fail(fn, "injected failure for property %d", id)
		}
		result = fmt.Sprint(f.Balances[addr][id])
	case "balanceOf":
		addr, id := argString(call.Args, 0), argUint(call.Args, 1)
		result = fmt.Sprint(f.Balances[addr][id])
	case "isApprovedForAll":
		owner, op := argString(call.Args, 0), argString(call.Args, 1)
		result = f.Approvals[owner][op]
	case "paused":
		result = f.PausedFlag
	case "owner":
		result = f.Admin
	default:
		return fail(fn, "unknown function")
	}

	return rewrap(fn, result, out)
}

// Submit validates the mutation the way the contract would, applies it, and
// returns a pending hash resolved by WaitForReceipt.
func (f *Fake) Submit(ctx context.Context, call ledger.Call) (ledger.TxHash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.init()

	fn := call.Function
	reject := func(msg string, args ...any) (ledger.TxHash, error) {
		return "", &ledger.MutationError{Function: fn, Reason: fmt.Sprintf(msg, args...)}
	}

	if f.SubmitReject != "" {
		return reject("%s", f.SubmitReject)
	}
	if f.PausedFlag && fn != "unpause" {
		return reject("Pausable: paused")
	}

	f.nonce++
	hash := ledger.TxHash(fmt.Sprintf("0x%064x", f.nonce))
	if f.RevertWith != "" {
		f.receipts[hash] = &ledger.Receipt{Hash: hash, Status: ledger.StatusReverted, Reason: f.RevertWith}
		return hash, nil
	}

	switch fn {
	case "listProperty":
		price, _ := new(big.Int).SetString(argString(call.Args, 5), 10)
		f.Properties = append(f.Properties, &Property{
			Name:          argString(call.Args, 0),
			Location:      argString(call.Args, 1),
			Description:   argString(call.Args, 2),
			ImageURI:      argString(call.Args, 3),
			TotalShares:   argUint(call.Args, 4),
			PricePerShare: price,
			RentalYield:   argUint(call.Args, 6),
			Owner:         call.From,
			Active:        true,
			Escrow:        new(big.Int),
		})
	case "updateProperty":
		id := argUint(call.Args, 0)
		p := f.Properties[int(id)]
		if p.Owner != call.From {
			return reject("Not the property owner")
		}
		p.Name = argString(call.Args, 1)
		p.Location = argString(call.Args, 2)
		p.Description = argString(call.Args, 3)
		p.ImageURI = argString(call.Args, 4)
		p.PricePerShare, _ = new(big.Int).SetString(argString(call.Args, 5), 10)
		p.RentalYield = argUint(call.Args, 6)
		p.Active = argBool(call.Args, 7)
	case "setPropertyStatus":
		id := argUint(call.Args, 0)
		p := f.Properties[int(id)]
		if p.Owner != call.From {
			return reject("Not the property owner")
		}
		p.Active = argBool(call.Args, 1)
	case "updatePricePerShare":
		id := argUint(call.Args, 0)
		p := f.Properties[int(id)]
		if p.Owner != call.From {
			return reject("Not the property owner")
		}
		p.PricePerShare, _ = new(big.Int).SetString(argString(call.Args, 1), 10)
	case "purchaseShares":
		id, amount := argUint(call.Args, 0), argUint(call.Args, 1)
		p := f.Properties[int(id)]
		if !p.Active {
			return reject("Property is not active")
		}
		if p.Minted+amount > p.TotalShares {
			return reject("Not enough shares available")
		}
		cost := new(big.Int).Mul(p.PricePerShare, new(big.Int).SetUint64(amount))
		if call.Value == nil || call.Value.Cmp(cost) < 0 {
			return reject("Insufficient payment")
		}
		p.Minted += amount
		p.Escrow = new(big.Int).Add(p.Escrow, cost)
		if f.Balances[call.From] == nil {
			f.Balances[call.From] = map[uint64]uint64{}
		}
		f.Balances[call.From][id] += amount
	case "sellShares":
		id, amount := argUint(call.Args, 0), argUint(call.Args, 1)
		if f.Balances[call.From][id] < amount {
			return reject("Insufficient shares")
		}
		f.Balances[call.From][id] -= amount
	case "withdrawPropertyFunds":
		id := argUint(call.Args, 0)
		p := f.Properties[int(id)]
		if p.Owner != call.From {
			return reject("Not the property owner")
		}
		amount, _ := new(big.Int).SetString(argString(call.Args, 1), 10)
		if amount == nil || p.Escrow.Cmp(amount) < 0 {
			return reject("Insufficient property balance")
		}
		p.Escrow = new(big.Int).Sub(p.Escrow, amount)
	case "setApprovalForAll":
		op, approved := argString(call.Args, 0), argBool(call.Args, 1)
		if f.Approvals[call.From] == nil {
			f.Approvals[call.From] = map[string]bool{}
		}
		f.Approvals[call.From][op] = approved
	case "safeTransferFrom":
		from, to := argString(call.Args, 0), argString(call.Args, 1)
		id, amount := argUint(call.Args, 2), argUint(call.Args, 3)
		if f.Balances[from][id] < amount {
			return reject("Insufficient shares")
		}
		f.Balances[from][id] -= amount
		if f.Balances[to] == nil {
			f.Balances[to] = map[uint64]uint64{}
		}
		f.Balances[to][id] += amount
	case "pause":
		if call.From != f.Admin {
			return reject("Ownable: caller is not the owner")
		}
		f.PausedFlag = true
	case "unpause":
		if call.From != f.Admin {
			return reject("Ownable: caller is not the owner")
		}
		f.PausedFlag = false
	default:
		return reject("unknown function %s", fn)
	}

	f.receipts[hash] = &ledger.Receipt{Hash: hash, Status: ledger.StatusSuccess, BlockNumber: uint64(f.nonce), GasUsed: 21000}
	return hash, nil
}

// WaitForReceipt resolves a pending hash, blocking on WaitGate if one is set.
func (f *Fake) WaitForReceipt(ctx context.Context, hash ledger.TxHash) (*ledger.Receipt, error) {
	f.mu.Lock()
	gate := f.WaitGate
	rcpt := f.receipts[hash]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &ledger.MutationError{Hash: hash, Reason: ctx.Err().Error()}
		}
	}
	if rcpt == nil {
		return nil, &ledger.MutationError{Hash: hash, Reason: "unknown transaction"}
	}
	return rcpt, nil
}

func (f *Fake) property(fn string, id uint64) (*Property, error) {
	if int(id) >= len(f.Properties) {
		return nil, fail(fn, "property %d does not exist", id)
	}
	return f.Properties[id], nil
}

func wireProperty(id uint64, p *Property) map[string]any {
	return map[string]any{
		"id":            id,
		"name":          p.Name,
		"location":      p.Location,
		"description":   p.Description,
		"imageUri":      p.ImageURI,
		"totalShares":   p.TotalShares,
		"pricePerShare": p.PricePerShare.String(),
		"rentalYield":   p.RentalYield,
		"propertyOwner": p.Owner,
		"isActive":      p.Active,
	}
}

// rewrap round-trips the simulated result through JSON, exercising the same
// wire decoding production responses go through.
func rewrap(fn string, result, out any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fail(fn, "encode: %v", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(fn, "decode: %v", err)
	}
	return nil
}

func argUint(args []any, i int) uint64 {
	if i >= len(args) {
		return 0
	}
	switch v := args[i].(type) {
	case uint64:
		return v
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	case json.Number:
		n, _ := v.Int64()
		return uint64(n)
	}
	return 0
}

func argString(args []any, i int) string {
	if i >= len(args) {
		return ""
	}
	switch v := args[i].(type) {
	case string:
		return v
	case *ledger.BigInt:
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(args[i])
}

func argBool(args []any, i int) bool {
	if i >= len(args) {
		return false
	}
	b, _ := args[i].(bool)
	return b
}
