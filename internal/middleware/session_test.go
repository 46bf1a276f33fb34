package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionApp(t *testing.T, ttl time.Duration) (*fiber.App, *redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	handler, rdb, err := Session(SessionConfig{RedisURL: "redis://" + mr.Addr(), CacheTTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	app := fiber.New()
	app.Use(handler)
	app.Post("/login", func(c *fiber.Ctx) error {
		teamID := uuid.New().String()
		return IssueSession(c, rdb, SessionConfig{}, SessionUser{
			UserID:      uuid.New().String(),
			Fullname:    "Ada",
			Email:       "ada@example.com",
			AccountType: "team_member",
			TeamID:      &teamID,
		})
	})
	app.Get("/me", RequireAuth(), func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.SendString(id.Email + "|" + id.AccountType)
	})
	app.Post("/touch-after-destroy", func(c *fiber.Ctx) error {
		// Another request destroys this session while the handler runs.
		rdb.Del(c.Context(), SessionRedisPrefix+GetSessionID(c))
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		rdb.Del(c.Context(), SessionRedisPrefix+GetSessionID(c))
		DestroySession(c)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, rdb, mr
}

func sessionCookie(t *testing.T, resp *http.Response) string {
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookieName {
			return ck.Value
		}
	}
	t.Fatal("no session cookie")
	return ""
}

func TestSession_LoginThenAuthenticatedRequest(t *testing.T) {
	app, _, mr := setupSessionApp(t, time.Minute)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)
	assert.True(t, strings.HasPrefix(cookie, "s:"))
	assert.True(t, mr.Exists(SessionRedisPrefix+strings.TrimPrefix(cookie, "s:")))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ada@example.com|team_member", string(body))
}

func TestSession_NoCookieIsUnauthorized(t *testing.T) {
	app, _, _ := setupSessionApp(t, time.Minute)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSession_CacheServesWithinTTL(t *testing.T) {
	app, _, mr := setupSessionApp(t, time.Minute)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)

	// Removing the key behind the cache's back: the cached copy still answers.
	mr.Del(SessionRedisPrefix + strings.TrimPrefix(cookie, "s:"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSession_CacheDisabledReadsRedis(t *testing.T) {
	app, _, mr := setupSessionApp(t, 0)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)
	mr.Del(SessionRedisPrefix + strings.TrimPrefix(cookie, "s:"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSession_LogoutDropsCachedSession(t *testing.T) {
	app, _, _ := setupSessionApp(t, time.Minute)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	_, err = app.Test(req)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionCache_Expires(t *testing.T) {
	sc := newSessionCache(time.Second)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sc.now = func() time.Time { return now }
	sc.put("a", map[string]interface{}{"k": "v"})

	got, ok := sc.get("a")
	require.True(t, ok)
	got["k"] = "mutated"
	again, _ := sc.get("a")
	assert.Equal(t, "v", again["k"])

	now = now.Add(2 * time.Second)
	_, ok = sc.get("a")
	assert.False(t, ok)
}

func TestSessionCache_EvictedAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	first, second := newSessionCache(time.Minute), newSessionCache(time.Minute)
	first.follow(rdb)
	second.follow(rdb)
	first.put("sid-1", map[string]interface{}{"user": "u"})
	second.put("sid-1", map[string]interface{}{"user": "u"})
	second.put("sid-2", map[string]interface{}{"user": "v"})

	EvictSessions(context.Background(), rdb, "sid-1")

	require.Eventually(t, func() bool {
		_, a := first.get("sid-1")
		_, b := second.get("sid-1")
		return !a && !b
	}, 2*time.Second, 10*time.Millisecond)
	_, ok := second.get("sid-2")
	assert.True(t, ok)
}

func TestSession_WritebackDoesNotResurrectDestroyedSession(t *testing.T) {
	app, _, mr := setupSessionApp(t, time.Minute)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
	require.NoError(t, err)
	cookie := sessionCookie(t, resp)
	key := SessionRedisPrefix + strings.TrimPrefix(cookie, "s:")

	req := httptest.NewRequest(http.MethodPost, "/touch-after-destroy", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists(key))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
