package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"digipay-backend/internal/middleware"
	"digipay-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthHandlers(t *testing.T) (*Handlers, *redis.Client) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Handlers{
		Service: &Service{DB: db},
		Rdb:     rdb,
		Config:  middleware.SessionConfig{},
	}, rdb
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (int, []byte) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func TestRegisterHandler_Success(t *testing.T) {
	h, rdb := setupAuthHandlers(t)
	app := fiber.New()
	app.Post("/register", h.Register)

	code, body := postJSON(t, app, "/register", map[string]string{
		"fullname": "Ada Byron",
		"email":    "ada@example.com",
		"password": "s3cret!pass",
	})
	assert.Equal(t, fiber.StatusCreated, code)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out["status"])
	data, _ := out["data"].(map[string]interface{})
	user, _ := data["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])

	keys, err := rdb.Keys(context.Background(), "user_sessions:*").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

func TestRegisterHandler_Duplicate(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Post("/register", h.Register)

	in := map[string]string{"fullname": "Ada Byron", "email": "ada@example.com", "password": "s3cret!pass"}
	code, _ := postJSON(t, app, "/register", in)
	require.Equal(t, fiber.StatusCreated, code)

	code, _ = postJSON(t, app, "/register", in)
	assert.Equal(t, fiber.StatusConflict, code)
}

func TestLoginHandler_Success(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	_, err := h.Service.Register(RegisterInput{Fullname: "Ada Byron", Email: "ada@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/login", h.Login)

	b, _ := json.Marshal(map[string]string{"email": "ada@example.com", "password": "s3cret!pass"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	cookies := resp.Header.Values("Set-Cookie")
	require.NotEmpty(t, cookies)
	assert.Contains(t, cookies[0], "digipay.sid=")
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	_, err := h.Service.Register(RegisterInput{Fullname: "Ada Byron", Email: "ada@example.com", Password: "s3cret!pass"})
	require.NoError(t, err)

	app := fiber.New()
	app.Post("/login", h.Login)

	code, _ := postJSON(t, app, "/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestMeHandler(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Get("/me", h.Me)
	app.Get("/me-auth", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  "550e8400-e29b-41d4-a716-446655440000",
			"fullname": "Test",
			"email":    "test@example.com",
			"role":     "user",
		})
		return h.Me(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me-auth", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogoutHandler(t *testing.T) {
	h, _ := setupAuthHandlers(t)
	app := fiber.New()
	app.Delete("/logout", h.Logout)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))
}
