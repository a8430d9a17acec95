package trading

import (
	"strconv"

	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/pkg/httperr"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Handlers exposes the share trading mutations for the connected wallet.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Reader       *registry.Reader
}

type sharesRequest struct {
	PropertyID uint64 `json:"propertyId"`
	Amount     uint64 `json:"amount"`
}

// Purchase POST /api/v1/trading/purchase
func (h *Handlers) Purchase(c *fiber.Ctx) error {
	var req sharesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "propertyId and amount are required", fiber.StatusBadRequest, nil)
	}
	res, err := h.Orchestrator.Purchase(c.Context(), wallet.SessionAccount(c), req.PropertyID, req.Amount)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Shares purchased", res, nil)
}

// Sell POST /api/v1/trading/sell
func (h *Handlers) Sell(c *fiber.Ctx) error {
	var req sharesRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "propertyId and amount are required", fiber.StatusBadRequest, nil)
	}
	res, err := h.Orchestrator.Sell(c.Context(), wallet.SessionAccount(c), req.PropertyID, req.Amount)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Shares sold", res, nil)
}

type transferRequest struct {
	To      string `json:"to"`
	TokenID uint64 `json:"tokenId"`
	Amount  uint64 `json:"amount"`
	Data    string `json:"data"`
}

// Transfer POST /api/v1/trading/transfer
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "to, tokenId and amount are required", fiber.StatusBadRequest, nil)
	}
	if !wallet.IsValidAddress(req.To) {
		return response.Error(c, "Invalid recipient address", fiber.StatusBadRequest, nil)
	}
	res, err := h.Orchestrator.Transfer(c.Context(), wallet.SessionAccount(c), req.To, req.TokenID, req.Amount, req.Data)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Shares transferred", res, nil)
}

type approvalRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// SetApproval POST /api/v1/trading/approval
func (h *Handlers) SetApproval(c *fiber.Ctx) error {
	var req approvalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "operator is required", fiber.StatusBadRequest, nil)
	}
	if !wallet.IsValidAddress(req.Operator) {
		return response.Error(c, "Invalid operator address", fiber.StatusBadRequest, nil)
	}
	res, err := h.Orchestrator.SetApproval(c.Context(), wallet.SessionAccount(c), req.Operator, req.Approved)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Approval updated", res, nil)
}

// GetApproval GET /api/v1/trading/approval/:operator — current approval for
// the connected wallet.
func (h *Handlers) GetApproval(c *fiber.Ctx) error {
	acct := wallet.SessionAccount(c)
	if _, err := wallet.Require(acct); err != nil {
		return httperr.Action(c, err)
	}
	operator := c.Params("operator")
	if !wallet.IsValidAddress(operator) {
		return response.Error(c, "Invalid operator address", fiber.StatusBadRequest, nil)
	}
	approved, err := h.Reader.IsApprovedForAll(c.Context(), acct.Address, operator)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Approval", fiber.Map{"approved": approved}, nil)
}

// ShareBalance GET /api/v1/trading/balance/:id — connected wallet's balance
// for one property.
func (h *Handlers) ShareBalance(c *fiber.Ctx) error {
	acct := wallet.SessionAccount(c)
	if _, err := wallet.Require(acct); err != nil {
		return httperr.Action(c, err)
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.Error(c, "Invalid property id", fiber.StatusBadRequest, nil)
	}
	balance, err := h.Reader.ShareBalance(c.Context(), acct.Address, id)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Share balance", fiber.Map{"balance": balance}, nil)
}
