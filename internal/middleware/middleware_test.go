package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthority(t *testing.T) *session.Authority {
	t.Helper()
	a, err := session.NewAuthority("test-secret-with-enough-length", time.Hour, "test")
	require.NoError(t, err)
	return a
}

func issue(t *testing.T, a *session.Authority, role session.Role) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	token, err := a.Issue(id, role)
	require.NoError(t, err)
	return id, token
}

func get(t *testing.T, app *fiber.App, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &out))
	}
	return resp, out
}

func TestAuth(t *testing.T) {
	a := newAuthority(t)
	var seen *session.Session

	app := fiber.New()
	app.Use(Auth(a))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		sess, ok := SessionFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		assert.True(t, sess.Active())
		seen = sess
		return c.JSON(fiber.Map{"user_id": sess.UserID.String(), "role": string(sess.Role)})
	})

	t.Run("missing token", func(t *testing.T) {
		resp, body := get(t, app, "/whoami", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	})

	t.Run("garbage token", func(t *testing.T) {
		resp, _ := get(t, app, "/whoami", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token closes session afterwards", func(t *testing.T) {
		id, token := issue(t, a, session.RoleCandidate)
		resp, body := get(t, app, "/whoami", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, id.String(), body["user_id"])
		assert.Equal(t, "candidate", body["role"])
		require.NotNil(t, seen)
		assert.False(t, seen.Active())
		assert.Empty(t, seen.Token())
	})
}

func TestRequireRoles(t *testing.T) {
	a := newAuthority(t)
	app := fiber.New()
	app.Get("/admin", Auth(a), RequireRoles(session.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/unguarded", RequireRoles(session.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, candidate := issue(t, a, session.RoleCandidate)
	_, admin := issue(t, a, session.RoleAdmin)

	resp, _ := get(t, app, "/admin", candidate)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = get(t, app, "/admin", admin)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = get(t, app, "/unguarded", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionRateLimiter(t *testing.T) {
	a := newAuthority(t)
	app := fiber.New()
	app.Get("/book", Auth(a), SessionRateLimiter(1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	_, first := issue(t, a, session.RoleCandidate)
	_, second := issue(t, a, session.RoleCandidate)

	resp, _ := get(t, app, "/book", first)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := get(t, app, "/book", first)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// another user keeps their own budget
	resp, _ = get(t, app, "/book", second)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRateLimiter_Defaults(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimiter(0, 0))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, _ := get(t, app, "/", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "50", resp.Header.Get("X-RateLimit-Limit"))
}
