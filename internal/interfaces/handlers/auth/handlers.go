package auth

import (
	"context"

	authsvc "swifttasks-backend/internal/application/auth"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

// Login POST /api/v1/auth/login. Issues a fresh session for valid credentials.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Fail(c, authsvc.ErrEmailPasswordRequired)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(c.Context(), req.Email, req.Password)
	if err != nil {
		return response.Fail(c, err)
	}

	su := middleware.SessionUserFor(user)
	if err := middleware.IssueSession(c, h.Rdb, h.Config, su); err != nil {
		log.Error().Err(err).Str("user_id", su.UserID).Msg("track session failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": su}, nil)
}

// Me GET /api/v1/auth/me. Current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		if middleware.GetSessionID(c) != "" {
			log.Debug().Str("path", c.Path()).Msg("session id present but no user in session")
		}
		return response.Fail(c, err)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout. Untrack and destroy the session, clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if id, ok := middleware.CurrentIdentity(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+id.UserID.String(), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}
