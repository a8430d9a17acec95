package wallet

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"digipay-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0x12Ab34Cd56Ef12Ab34Cd56Ef12Ab34Cd56Ef12Ab"

func walletApp(h *Handlers) *fiber.App {
	app := fiber.New()
	// Stand-in for the session middleware: seed empty session data.
	app.Use(func(c *fiber.Ctx) error {
		if c.Locals("session_data") == nil {
			c.Locals("session_data", map[string]interface{}{})
		}
		return c.Next()
	})
	app.Post("/wallet/connect", h.Connect)
	app.Delete("/wallet", h.Disconnect)
	app.Get("/wallet", h.Status)
	return app
}

func TestConnect_BindsAddress(t *testing.T) {
	h := &Handlers{Config: middleware.SessionConfig{}}
	app := walletApp(h)

	b, _ := json.Marshal(map[string]string{"address": testAddr})
	req := httptest.NewRequest("POST", "/wallet/connect", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookies := resp.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "digipay.sid=")
}

func TestConnect_RejectsBadAddress(t *testing.T) {
	h := &Handlers{}
	app := walletApp(h)

	for _, addr := range []string{"", "nonsense", "0x1234", "12Ab34Cd56Ef12Ab34Cd56Ef12Ab34Cd56Ef12Ab"} {
		b, _ := json.Marshal(map[string]string{"address": addr})
		req := httptest.NewRequest("POST", "/wallet/connect", bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "address %q", addr)
	}
}

func TestStatus_ReflectsBinding(t *testing.T) {
	h := &Handlers{}
	app := fiber.New()
	app.Get("/wallet", func(c *fiber.Ctx) error {
		c.Locals("session_data", map[string]interface{}{})
		middleware.SetSessionWallet(c, testAddr)
		return h.Status(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/wallet", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data, _ := out["data"].(map[string]interface{})
	assert.Equal(t, testAddr, data["address"])
	assert.Equal(t, true, data["connected"])
}

func TestDisconnect_ClearsBinding(t *testing.T) {
	h := &Handlers{}
	app := fiber.New()
	app.Delete("/wallet", func(c *fiber.Ctx) error {
		c.Locals("session_data", map[string]interface{}{})
		middleware.SetSessionWallet(c, testAddr)
		if err := h.Disconnect(c); err != nil {
			return err
		}
		assert.Equal(t, "", middleware.GetSessionWallet(c))
		return nil
	})

	resp, err := app.Test(httptest.NewRequest("DELETE", "/wallet", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionAccount(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		c.Locals("session_data", map[string]interface{}{})
		acct := SessionAccount(c)
		assert.False(t, acct.Connected)

		middleware.SetSessionWallet(c, testAddr)
		acct = SessionAccount(c)
		assert.True(t, acct.Connected)
		assert.Equal(t, testAddr, acct.Address)
		return c.SendStatus(fiber.StatusOK)
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
