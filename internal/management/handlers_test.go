package management

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"

	"digipay-backend/internal/ledger/ledgertest"
	"digipay-backend/internal/middleware"
	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/portfolio"
	"digipay-backend/internal/registry"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "0x00000000000000000000000000000000000A0001"

func eth(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test amount " + s)
	}
	return v
}

func seededManagement() (*Handlers, *ledgertest.Fake) {
	f := &ledgertest.Fake{Admin: "0xadmin"}
	f.AddProperty(&ledgertest.Property{
		Name: "Harbor Lofts", TotalShares: 1000,
		PricePerShare: eth("10000000000000000"), RentalYield: 550,
		Owner: owner, Active: true, Minted: 800,
		Escrow: eth("2000000000000000000"),
	})
	reader := &registry.Reader{Caller: f, Contract: "0xreg"}
	writer := &registry.Writer{Caller: f, Contract: "0xreg"}
	return &Handlers{
		Orchestrator: orchestrator.New(reader, writer),
		Portfolio:    &portfolio.Service{Reader: reader},
		Reader:       reader,
	}, f
}

func managementApp(h *Handlers, walletAddr string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("session_data", map[string]interface{}{})
		if walletAddr != "" {
			middleware.SetSessionWallet(c, walletAddr)
		}
		return c.Next()
	})
	app.Get("/management/properties", h.OwnedProperties)
	app.Post("/management/properties", h.ListProperty)
	app.Put("/management/properties/:id", h.UpdateProperty)
	app.Patch("/management/properties/:id/status", h.SetStatus)
	app.Patch("/management/properties/:id/price", h.UpdatePrice)
	app.Post("/management/properties/:id/withdraw", h.Withdraw)
	app.Get("/management/properties/:id/balance", h.EscrowBalance)
	return app
}

func request(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(r, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestListProperty_Success(t *testing.T) {
	h, f := seededManagement()
	app := managementApp(h, owner)

	code, out := request(t, app, "POST", "/management/properties", map[string]interface{}{
		"name": "Pine Row", "location": "Porto", "description": "Row houses",
		"imageUri": "https://ipfs.io/ipfs/QmPine", "totalShares": 500,
		"pricePerShare": "0.02", "rentalYield": 300,
	})
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "success", out["status"])
	require.Len(t, f.Properties, 2)
	assert.Equal(t, "Pine Row", f.Properties[1].Name)
	assert.Equal(t, "20000000000000000", f.Properties[1].PricePerShare.String())
}

func TestListProperty_InvalidPrice(t *testing.T) {
	h, _ := seededManagement()
	app := managementApp(h, owner)

	code, out := request(t, app, "POST", "/management/properties", map[string]interface{}{
		"name": "Pine Row", "totalShares": 500, "pricePerShare": "not-a-number",
	})
	assert.Equal(t, fiber.StatusBadRequest, code)
	errObj := out["error"].(map[string]interface{})
	assert.Equal(t, "Invalid amount", errObj["message"])
}

func TestUpdatePrice_Success(t *testing.T) {
	h, f := seededManagement()
	app := managementApp(h, owner)

	code, _ := request(t, app, "PATCH", "/management/properties/0/price", map[string]string{
		"pricePerShare": "0.05",
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "50000000000000000", f.Properties[0].PricePerShare.String())
}

func TestUpdateProperty_NotOwner(t *testing.T) {
	h, _ := seededManagement()
	app := managementApp(h, "0x00000000000000000000000000000000000A0002")

	code, _ := request(t, app, "PUT", "/management/properties/0", map[string]interface{}{
		"name": "Hijacked", "pricePerShare": "0.01", "isActive": true,
	})
	assert.Equal(t, fiber.StatusBadGateway, code)
}

func TestSetStatus_Success(t *testing.T) {
	h, f := seededManagement()
	app := managementApp(h, owner)

	code, _ := request(t, app, "PATCH", "/management/properties/0/status", map[string]bool{
		"isActive": false,
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.False(t, f.Properties[0].Active)
}

func TestWithdraw_Success(t *testing.T) {
	h, f := seededManagement()
	app := managementApp(h, owner)

	code, _ := request(t, app, "POST", "/management/properties/0/withdraw", map[string]string{
		"amount": "1.5",
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "500000000000000000", f.Properties[0].Escrow.String())
}

func TestWithdraw_NoWallet(t *testing.T) {
	h, _ := seededManagement()
	app := managementApp(h, "")

	code, _ := request(t, app, "POST", "/management/properties/0/withdraw", map[string]string{
		"amount": "1.5",
	})
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestOwnedProperties(t *testing.T) {
	h, _ := seededManagement()
	app := managementApp(h, owner)

	code, out := request(t, app, "GET", "/management/properties", nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := out["data"].(map[string]interface{})
	props := data["properties"].([]interface{})
	require.Len(t, props, 1)
}

func TestEscrowBalance(t *testing.T) {
	h, _ := seededManagement()
	app := managementApp(h, owner)

	code, out := request(t, app, "GET", "/management/properties/0/balance", nil)
	assert.Equal(t, fiber.StatusOK, code)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "2.0000", data["display"])
}
