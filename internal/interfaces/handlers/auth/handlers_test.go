package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	authsvc "swifttasks-backend/internal/application/auth"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserFinder returns the configured user for password123.
type fakeUserFinder struct {
	user *domain.User
	err  error
}

func (f *fakeUserFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil && f.user.Email == email && password == "password123" {
		return f.user, nil
	}
	if f.user != nil && f.user.Email == email {
		return nil, authsvc.ErrIncorrectPassword
	}
	return nil, authsvc.ErrInvalidEmail
}

func setupAuthHandlers(t *testing.T, finder authsvc.UserFinder) (*Handlers, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	h := &Handlers{
		UserFinder: finder,
		Rdb:        rdb,
		Config:     middleware.SessionConfig{},
	}
	return h, rdb
}

func postLogin(t *testing.T, app *fiber.App, body interface{}) *httptestResponse {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return &httptestResponse{Status: resp.StatusCode, Body: out, Cookies: resp.Header.Values("Set-Cookie")}
}

type httptestResponse struct {
	Status  int
	Body    map[string]interface{}
	Cookies []string
}

func TestLogin_EmptyBody(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{user: &domain.User{}})
	app := fiber.New()
	app.Post("/login", h.Login)

	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogin_Failures(t *testing.T) {
	uid := uuid.New()
	h, _ := setupAuthHandlers(t, &fakeUserFinder{user: &domain.User{UserID: uid, Email: "test@example.com", Fullname: "Test User"}})
	app := fiber.New()
	app.Post("/login", h.Login)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing password", map[string]string{"email": "a@b.com"}, fiber.StatusBadRequest},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "x"}, fiber.StatusUnauthorized},
		{"wrong password", map[string]string{"email": "test@example.com", "password": "wrong"}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := postLogin(t, app, tt.body)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, "error", res.Body["status"])
		})
	}
}

func TestLogin_Success(t *testing.T) {
	uid := uuid.New()
	teamID := uuid.New()
	h, rdb := setupAuthHandlers(t, &fakeUserFinder{user: &domain.User{
		UserID: uid, Email: "test@example.com", Fullname: "Test User",
		AccountType: domain.AccountTeamMember, TeamID: &teamID,
	}})
	app := fiber.New()
	app.Post("/login", h.Login)

	res := postLogin(t, app, map[string]string{"email": "test@example.com", "password": "password123"})
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, "Login successful", res.Body["message"])
	data, _ := res.Body["data"].(map[string]interface{})
	user, _ := data["user"].(map[string]interface{})
	require.NotNil(t, user)
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, domain.AccountTeamMember, user["account_type"])
	assert.Equal(t, teamID.String(), user["team_id"])

	require.NotEmpty(t, res.Cookies)
	assert.Contains(t, res.Cookies[0], middleware.SessionCookieName+"=")

	members, err := rdb.SMembers(context.Background(), middleware.UserSessionsPrefix+uid.String()).Result()
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestLogin_NilUserFinder(t *testing.T) {
	h, _ := setupAuthHandlers(t, nil)
	app := fiber.New()
	app.Post("/login", h.Login)

	res := postLogin(t, app, map[string]string{"email": "a@b.com", "password": "pass"})
	assert.Equal(t, fiber.StatusInternalServerError, res.Status)
}

func TestMe(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Get("/anon/me", h.Me)
	app.Get("/me", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":       "550e8400-e29b-41d4-a716-446655440000",
			"fullname":      "Test",
			"email":         "test@example.com",
			"account_type":  "single",
			"team_id":       nil,
			"is_team_owner": false,
		})
		return h.Me(c)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/anon/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data, _ := out["data"].(map[string]interface{})
	user, _ := data["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", user["email"])
	assert.Nil(t, user["team_id"])
}

func TestLogout_NoSession(t *testing.T) {
	h, _ := setupAuthHandlers(t, &fakeUserFinder{})
	app := fiber.New()
	app.Delete("/logout", h.Logout)

	resp, err := app.Test(httptest.NewRequest("DELETE", "/logout", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))
}
