package wallet

import (
	"regexp"
	"strings"

	"digipay-backend/internal/middleware"
	"digipay-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether s looks like a ledger account address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// SessionAccount builds the caller's ledger identity from the session
// binding. Connected is false when no address is bound; the write path
// rejects such accounts, so handlers can pass it through unchecked.
func SessionAccount(c *fiber.Ctx) Account {
	addr := middleware.GetSessionWallet(c)
	return Account{Address: addr, Connected: addr != ""}
}

// Handlers binds and clears the session wallet.
type Handlers struct {
	Config middleware.SessionConfig
}

// ConnectRequest body for POST /connect.
type ConnectRequest struct {
	Address string `json:"address"`
}

// Connect POST /api/v1/wallet/connect — bind a wallet address to the session.
func (h *Handlers) Connect(c *fiber.Ctx) error {
	var req ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Wallet address is required", fiber.StatusBadRequest, nil)
	}
	addr := strings.TrimSpace(req.Address)
	if addr == "" {
		return response.Error(c, "Wallet address is required", fiber.StatusBadRequest, nil)
	}
	if !IsValidAddress(addr) {
		return response.Error(c, "Invalid wallet address", fiber.StatusBadRequest, nil)
	}

	// A wallet binding needs a live session even for anonymous visitors.
	sessionID := middleware.GetSessionID(c)
	if sessionID == "" {
		sessionID = middleware.RegenerateSessionID(c)
		cookie := middleware.SessionCookieConfig(h.Config)
		cookie.Value = "s:" + sessionID
		c.Cookie(&cookie)
	}
	middleware.SetSessionWallet(c, addr)

	return response.Success(c, "Wallet connected", fiber.Map{
		"address":   addr,
		"connected": true,
	}, nil)
}

// Disconnect DELETE /api/v1/wallet/disconnect — clear the session wallet binding.
// The session itself survives; only the ledger identity is dropped.
func (h *Handlers) Disconnect(c *fiber.Ctx) error {
	middleware.SetSessionWallet(c, "")
	return response.Success(c, "Wallet disconnected", fiber.Map{"connected": false}, nil)
}

// Status GET /api/v1/wallet/status — report the current binding.
func (h *Handlers) Status(c *fiber.Ctx) error {
	addr := middleware.GetSessionWallet(c)
	return response.Success(c, "Wallet status", fiber.Map{
		"address":   addr,
		"connected": addr != "",
	}, nil)
}
