package properties

import (
	"errors"
	"strconv"

	"digipay-backend/internal/ethunits"
	"digipay-backend/internal/ledger"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers serves public read-only property endpoints. Everything here is
// fetched from the ledger on demand; no state is cached server-side.
type Handlers struct {
	Reader *registry.Reader
}

// propertyView decorates the raw record with display amounts.
type propertyView struct {
	registry.Property
	PriceDisplay string `json:"priceDisplay"`
	YieldDisplay string `json:"yieldDisplay"`
}

func viewOf(p registry.Property) propertyView {
	return propertyView{
		Property:     p,
		PriceDisplay: ethunits.ToDisplay(p.PricePerShare.Ref()),
		YieldDisplay: ethunits.FormatBasisPoints(p.RentalYield),
	}
}

// ListProperties GET /api/v1/properties — active listings only.
func (h *Handlers) ListProperties(c *fiber.Ctx) error {
	props, err := h.Reader.ActiveProperties(c.Context())
	if err != nil {
		return respondReadError(c, err)
	}
	views := make([]propertyView, 0, len(props))
	for _, p := range props {
		views = append(views, viewOf(p))
	}
	return response.Success(c, "Properties", fiber.Map{"properties": views}, nil)
}

// ListAllProperties GET /api/v1/properties/all — includes inactive listings.
func (h *Handlers) ListAllProperties(c *fiber.Ctx) error {
	props, err := h.Reader.AllProperties(c.Context())
	if err != nil {
		return respondReadError(c, err)
	}
	views := make([]propertyView, 0, len(props))
	for _, p := range props {
		views = append(views, viewOf(p))
	}
	return response.Success(c, "Properties", fiber.Map{"properties": views}, nil)
}

// GetProperty GET /api/v1/properties/:id — one record with live supply data.
func (h *Handlers) GetProperty(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}

	prop, err := h.Reader.Property(c.Context(), id)
	if err != nil {
		return respondReadError(c, err)
	}
	minted, err := h.Reader.SharesMinted(c.Context(), id)
	if err != nil {
		return respondReadError(c, err)
	}

	view := viewOf(*prop)
	return response.Success(c, "Property", fiber.Map{
		"property":        view,
		"sharesMinted":    minted,
		"sharesAvailable": prop.TotalShares - minted,
	}, nil)
}

// PropertyCount GET /api/v1/properties/count
func (h *Handlers) PropertyCount(c *fiber.Ctx) error {
	count, err := h.Reader.PropertyCount(c.Context())
	if err != nil {
		return respondReadError(c, err)
	}
	return response.Success(c, "Property count", fiber.Map{"count": count}, nil)
}

// respondReadError maps ledger query failures onto the gateway status.
// The node's reason travels verbatim so the client sees what the chain saw.
func respondReadError(c *fiber.Ctx, err error) error {
	var qe *ledger.QueryError
	if errors.As(err, &qe) {
		log.Warn().Err(qe).Str("function", qe.Function).Msg("ledger read failed")
		return response.Error(c, qe.Error(), fiber.StatusBadGateway, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
