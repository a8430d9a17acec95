// Package httperr maps the contract action error taxonomy onto the
// standard HTTP error responses.
package httperr

import (
	"errors"

	"digipay-backend/internal/ledger"
	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/pkg/response"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
)

// Action maps action errors onto HTTP statuses: validation 400, wallet
// guard 401, duplicate action 409, ledger 502. Node revert reasons travel
// verbatim so the client sees what the chain saw.
func Action(c *fiber.Ctx, err error) error {
	var ve *orchestrator.ValidationError
	if errors.As(err, &ve) {
		return response.Error(c, ve.Reason, fiber.StatusBadRequest, fiber.Map{"field": ve.Field})
	}
	if errors.Is(err, wallet.ErrNotConnected) || errors.Is(err, wallet.ErrNoAddress) {
		return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
	}
	if errors.Is(err, orchestrator.ErrActionInProgress) {
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	}
	var me *ledger.MutationError
	if errors.As(err, &me) {
		return response.Error(c, me.Reason, fiber.StatusBadGateway, fiber.Map{"hash": me.Hash})
	}
	var qe *ledger.QueryError
	if errors.As(err, &qe) {
		return response.Error(c, qe.Error(), fiber.StatusBadGateway, nil)
	}
	return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
}
