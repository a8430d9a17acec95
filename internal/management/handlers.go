package management

import (
	"strconv"

	"digipay-backend/internal/ethunits"
	"digipay-backend/internal/ledger"
	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/pkg/httperr"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/portfolio"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Handlers is the property-owner surface: listing, editing and funding
// operations for properties the connected wallet owns.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Portfolio    *portfolio.Service
	Reader       *registry.Reader
}

// listRequest carries display-denominated amounts; price converts to wei
// here at the HTTP edge.
type listRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	ImageURI      string `json:"imageUri"`
	TotalShares   uint64 `json:"totalShares"`
	PricePerShare string `json:"pricePerShare"`
	RentalYield   uint64 `json:"rentalYield"`
}

// ListProperty POST /api/v1/management/properties
func (h *Handlers) ListProperty(c *fiber.Ctx) error {
	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Listing details are required", fiber.StatusBadRequest, nil)
	}
	price, err := ethunits.ToWei(req.PricePerShare)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"field": "pricePerShare"})
	}

	res, err := h.Orchestrator.ListProperty(c.Context(), wallet.SessionAccount(c), registry.ListParams{
		Name:          req.Name,
		Location:      req.Location,
		Description:   req.Description,
		ImageURI:      req.ImageURI,
		TotalShares:   req.TotalShares,
		PricePerShare: ledger.NewBigInt(price),
		RentalYield:   req.RentalYield,
	})
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.SuccessCreated(c, "Property listed", res, nil)
}

type updateRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	Description   string `json:"description"`
	ImageURI      string `json:"imageUri"`
	PricePerShare string `json:"pricePerShare"`
	RentalYield   uint64 `json:"rentalYield"`
	IsActive      bool   `json:"isActive"`
}

// UpdateProperty PUT /api/v1/management/properties/:id
func (h *Handlers) UpdateProperty(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Update details are required", fiber.StatusBadRequest, nil)
	}
	price, err := ethunits.ToWei(req.PricePerShare)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"field": "pricePerShare"})
	}

	res, err := h.Orchestrator.UpdateProperty(c.Context(), wallet.SessionAccount(c), id, registry.UpdateParams{
		Name:          req.Name,
		Location:      req.Location,
		Description:   req.Description,
		ImageURI:      req.ImageURI,
		PricePerShare: ledger.NewBigInt(price),
		RentalYield:   req.RentalYield,
		IsActive:      req.IsActive,
	})
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Property updated", res, nil)
}

type statusRequest struct {
	IsActive bool `json:"isActive"`
}

// SetStatus PATCH /api/v1/management/properties/:id/status
func (h *Handlers) SetStatus(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "isActive is required", fiber.StatusBadRequest, nil)
	}
	res, err := h.Orchestrator.SetStatus(c.Context(), wallet.SessionAccount(c), id, req.IsActive)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Property status updated", res, nil)
}

type priceRequest struct {
	PricePerShare string `json:"pricePerShare"`
}

// UpdatePrice PATCH /api/v1/management/properties/:id/price
func (h *Handlers) UpdatePrice(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	var req priceRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "pricePerShare is required", fiber.StatusBadRequest, nil)
	}
	price, err := ethunits.ToWei(req.PricePerShare)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"field": "pricePerShare"})
	}
	res, err := h.Orchestrator.UpdatePrice(c.Context(), wallet.SessionAccount(c), id, price)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Price updated", res, nil)
}

type withdrawRequest struct {
	Amount string `json:"amount"`
}

// Withdraw POST /api/v1/management/properties/:id/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "amount is required", fiber.StatusBadRequest, nil)
	}
	amount, err := ethunits.ToWei(req.Amount)
	if err != nil {
		return response.Error(c, err.Error(), fiber.StatusBadRequest, fiber.Map{"field": "amount"})
	}
	res, err := h.Orchestrator.Withdraw(c.Context(), wallet.SessionAccount(c), id, amount)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Funds withdrawn", res, nil)
}

// OwnedProperties GET /api/v1/management/properties — listings owned by the
// connected wallet, with live supply and escrow data.
func (h *Handlers) OwnedProperties(c *fiber.Ctx) error {
	acct := wallet.SessionAccount(c)
	if _, err := wallet.Require(acct); err != nil {
		return httperr.Action(c, err)
	}
	owned, err := h.Portfolio.OwnedProperties(c.Context(), acct.Address)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Owned properties", fiber.Map{"properties": owned}, nil)
}

// EscrowBalance GET /api/v1/management/properties/:id/balance
func (h *Handlers) EscrowBalance(c *fiber.Ctx) error {
	acct := wallet.SessionAccount(c)
	if _, err := wallet.Require(acct); err != nil {
		return httperr.Action(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	bal, err := h.Reader.PropertyEthBalance(c.Context(), id)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Escrow balance", fiber.Map{
		"wei":     ledger.NewBigInt(bal),
		"display": ethunits.ToDisplay(bal),
	}, nil)
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}
