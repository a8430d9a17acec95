package portfolio

import (
	"digipay-backend/internal/pkg/httperr"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the connected wallet's holdings.
type Handlers struct {
	Service *Service
}

// GetPortfolio GET /api/v1/portfolio — aggregated holdings with totals.
func (h *Handlers) GetPortfolio(c *fiber.Ctx) error {
	acct := wallet.SessionAccount(c)
	if _, err := wallet.Require(acct); err != nil {
		return httperr.Action(c, err)
	}
	view, err := h.Service.Portfolio(c.Context(), acct.Address)
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Portfolio", view, nil)
}
