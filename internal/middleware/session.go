package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionConfig for the Redis-backed cookie session.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "digipay.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour
)

// SessionUser is the backend identity stored in the session under "user".
// The wallet identity lives under a separate "wallet" key; the two
// authentication domains are never conflated.
type SessionUser struct {
	UserID   string `json:"user_id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Session returns a Fiber middleware that loads the session from Redis into
// Locals and persists it after the handler chain runs.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)

	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(SessionCookieName)
		if strings.HasPrefix(sessionID, "s:") {
			parts := strings.SplitN(sessionID[2:], ".", 2)
			sessionID = parts[0]
		}

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(context.Background(), SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals("session_data", data)
		c.Locals("user", data["user"])
		c.Locals("wallet", data["wallet"])
		c.Locals("session_id", sessionID)

		if err := c.Next(); err != nil {
			return err
		}

		if sid, _ := c.Locals("session_id").(string); sid != "" {
			updated, _ := c.Locals("session_data").(map[string]interface{})
			if updated != nil {
				b, _ := json.Marshal(updated)
				rdb.Set(context.Background(), SessionRedisPrefix+sid, b, sessionMaxAge)
			}
		}
		return nil
	}, rdb, nil
}

// GetSessionID returns the current session ID (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals("session_id").(string)
	return sid
}

// SetSessionUser stores the backend identity in the session. Call after
// login/register, usually after RegenerateSessionID.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data := sessionData(c)
	data["user"] = map[string]interface{}{
		"user_id":  user.UserID,
		"fullname": user.Fullname,
		"email":    user.Email,
		"role":     user.Role,
	}
	c.Locals("session_data", data)
	c.Locals("user", data["user"])
}

// SetSessionWallet binds a ledger identity to the session. Bound at
// connect, cleared at disconnect.
func SetSessionWallet(c *fiber.Ctx, address string) {
	data := sessionData(c)
	if address == "" {
		delete(data, "wallet")
		c.Locals("wallet", nil)
	} else {
		data["wallet"] = map[string]interface{}{"address": address}
		c.Locals("wallet", data["wallet"])
	}
	c.Locals("session_data", data)
}

// GetSessionWallet returns the bound wallet address, empty when none.
func GetSessionWallet(c *fiber.Ctx) string {
	w, _ := c.Locals("wallet").(map[string]interface{})
	if w == nil {
		return ""
	}
	addr, _ := w["address"].(string)
	return addr
}

// RegenerateSessionID creates a new session ID for the request; the handler
// sets the cookie as "s:"+id.
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals("session_id", newID)
	return newID
}

// DestroySession clears user, wallet and session data from Locals; caller
// clears the cookie and the Redis key.
func DestroySession(c *fiber.Ctx) {
	c.Locals("session_data", make(map[string]interface{}))
	c.Locals("user", nil)
	c.Locals("wallet", nil)
}

// SessionCookieConfig returns the cookie options for set/clear.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	secure := cfg.IsProduction && cfg.AllowCrossSiteDev
	return fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

func sessionData(c *fiber.Ctx) map[string]interface{} {
	data, _ := c.Locals("session_data").(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
	}
	return data
}
