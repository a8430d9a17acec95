// Package portfolio builds composite views over the registry: a holder's
// portfolio and an owner's property-management view. Both fan out reads
// concurrently and tolerate per-item failure; one bad property never blanks
// a whole view.
package portfolio

import (
	"context"
	"math/big"
	"sync"

	"digipay-backend/internal/ethunits"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Service aggregates registry reads into view models.
type Service struct {
	Reader *registry.Reader
}

// Holding is one position in a holder's portfolio.
type Holding struct {
	PropertyID uint64             `json:"property_id"`
	Shares     uint64             `json:"shares"`
	Property   *registry.Property `json:"property"`
}

// View is the holder's portfolio with computed totals. TotalValue is in
// display units; neither total is stored anywhere.
type View struct {
	Holdings    []Holding `json:"holdings"`
	TotalValue  string    `json:"total_value"`
	TotalShares uint64    `json:"total_shares"`
}

// OwnedProperty is a property in the management view with its derived
// metadata. Degraded is set when the metadata fetch failed and zeros were
// substituted; the property itself is always retained for its owner.
type OwnedProperty struct {
	registry.Property
	SharesMinted uint64 `json:"shares_minted"`
	EthBalance   string `json:"eth_balance"`
	Degraded     bool   `json:"degraded,omitempty"`
}

// Portfolio builds the holdings view for addr. Per-id fetches run
// concurrently; an id whose fetch fails is dropped and logged, and ids with
// zero shares are excluded. The result is best-effort over whatever
// individually succeeded.
func (s *Service) Portfolio(ctx context.Context, addr string) (*View, error) {
	ids, err := s.Reader.UserProperties(ctx, addr)
	if err != nil {
		return nil, err
	}

	slots := make([]*Holding, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint64) {
			defer wg.Done()
			shares, err := s.Reader.ShareBalance(ctx, addr, id)
			if err != nil {
				log.Warn().Err(err).Uint64("property_id", id).Str("address", addr).Msg("Dropping portfolio item: share balance fetch failed")
				return
			}
			if shares == 0 {
				return
			}
			prop, err := s.Reader.Property(ctx, id)
			if err != nil {
				log.Warn().Err(err).Uint64("property_id", id).Str("address", addr).Msg("Dropping portfolio item: property fetch failed")
				return
			}
			slots[i] = &Holding{PropertyID: id, Shares: shares, Property: prop}
		}(i, id)
	}
	wg.Wait()

	view := &View{Holdings: []Holding{}}
	total := decimal.Zero
	for _, h := range slots {
		if h == nil {
			continue
		}
		view.Holdings = append(view.Holdings, *h)
		view.TotalShares += h.Shares
		price, err := decimal.NewFromString(ethunits.ToDisplay(h.Property.PricePerShare.Ref()))
		if err == nil {
			total = total.Add(price.Mul(decimal.NewFromUint64(h.Shares)))
		}
	}
	view.TotalValue = total.StringFixed(4)
	return view, nil
}

// OwnedProperties builds the management view for addr: every property the
// address owns, with minted-share and escrow metadata fetched concurrently.
// A failed metadata fetch keeps the property with zero metadata rather than
// dropping it; an owner must always see everything they own.
func (s *Service) OwnedProperties(ctx context.Context, addr string) ([]OwnedProperty, error) {
	all, err := s.Reader.AllProperties(ctx)
	if err != nil {
		return nil, err
	}

	owned := []registry.Property{}
	for _, p := range all {
		if wallet.SameAddress(p.PropertyOwner, addr) {
			owned = append(owned, p)
		}
	}

	out := make([]OwnedProperty, len(owned))
	var wg sync.WaitGroup
	for i, p := range owned {
		wg.Add(1)
		go func(i int, p registry.Property) {
			defer wg.Done()
			minted, escrow, err := s.metadata(ctx, p.ID)
			if err != nil {
				log.Warn().Err(err).Uint64("property_id", p.ID).Msg("Serving owned property with degraded metadata")
				out[i] = OwnedProperty{Property: p, EthBalance: "0", Degraded: true}
				return
			}
			out[i] = OwnedProperty{Property: p, SharesMinted: minted, EthBalance: escrow.String()}
		}(i, p)
	}
	wg.Wait()

	return out, nil
}

func (s *Service) metadata(ctx context.Context, id uint64) (uint64, *big.Int, error) {
	minted, err := s.Reader.SharesMinted(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	escrow, err := s.Reader.PropertyEthBalance(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	return minted, escrow, nil
}
