package activity

import (
	"digipay-backend/internal/middleware"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves the activity feed.
type Handlers struct {
	Service *Service
}

// ListActivity GET /api/v1/activity — recent events, optional ?target= filter.
func (h *Handlers) ListActivity(c *fiber.Ctx) error {
	events, err := h.Service.List(ListParams{
		Target: c.Query("target"),
		Limit:  c.QueryInt("limit"),
	})
	if err != nil {
		return response.Error(c, "Failed to load activity", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Activity", fiber.Map{"events": events}, nil)
}

// MyActivity GET /api/v1/activity/me — events for the connected wallet.
func (h *Handlers) MyActivity(c *fiber.Ctx) error {
	addr := middleware.GetSessionWallet(c)
	if addr == "" {
		return response.Error(c, wallet.ErrNotConnected.Error(), fiber.StatusUnauthorized, nil)
	}
	events, err := h.Service.List(ListParams{
		Actor: addr,
		Limit: c.QueryInt("limit"),
	})
	if err != nil {
		return response.Error(c, "Failed to load activity", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Activity", fiber.Map{"events": events}, nil)
}
