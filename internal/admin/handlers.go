package admin

import (
	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/pkg/httperr"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Handlers is the contract-admin surface. Authorization is the ledger's:
// the contract rejects callers other than its owner, and that rejection
// travels back verbatim.
type Handlers struct {
	Orchestrator *orchestrator.Orchestrator
	Reader       *registry.Reader
}

// Pause POST /api/v1/admin/pause — halt all share transfers.
func (h *Handlers) Pause(c *fiber.Ctx) error {
	res, err := h.Orchestrator.Pause(c.Context(), wallet.SessionAccount(c))
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Contract paused", res, nil)
}

// Unpause POST /api/v1/admin/unpause
func (h *Handlers) Unpause(c *fiber.Ctx) error {
	res, err := h.Orchestrator.Unpause(c.Context(), wallet.SessionAccount(c))
	if err != nil {
		return httperr.Action(c, err)
	}
	return response.Success(c, "Contract unpaused", res, nil)
}

// ContractStatus GET /api/v1/admin/status — paused flag and contract owner.
func (h *Handlers) ContractStatus(c *fiber.Ctx) error {
	paused, err := h.Reader.Paused(c.Context())
	if err != nil {
		return httperr.Action(c, err)
	}
	owner, err := h.Reader.ContractOwner(c.Context())
	if err != nil {
		return httperr.Action(c, err)
	}

	data := fiber.Map{"paused": paused, "owner": owner}
	if addr := wallet.SessionAccount(c); addr.Connected {
		data["isOwner"] = wallet.SameAddress(addr.Address, owner)
	}
	return response.Success(c, "Contract status", data, nil)
}
