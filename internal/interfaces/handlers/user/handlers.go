package user

import (
	usersvc "swifttasks-backend/internal/application/user"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds the user service and what signup needs to open a session.
type Handlers struct {
	Service *usersvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// CreateUser POST /api/v1/users/create-user. Public signup of a single account; logs the new
// user in.
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var in usersvc.CreateUserInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	u, err := h.Service.CreateUser(c.Context(), in)
	if err != nil {
		return response.Fail(c, err)
	}
	su := middleware.SessionUserFor(u)
	if err := middleware.IssueSession(c, h.Rdb, h.Config, su); err != nil {
		log.Warn().Err(err).Str("user_id", su.UserID).Msg("signup session tracking failed")
	}
	return response.SuccessCreated(c, "User created successfully", fiber.Map{"user": u}, nil)
}

// ViewUser GET /api/v1/users/view-user. The caller's profile.
func (h *Handlers) ViewUser(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	u, err := h.Service.ViewUser(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "User found", fiber.Map{"user": u}, nil)
}

// UpdateUser PUT /api/v1/users/update-user. Edits the caller's profile and refreshes the
// session copy.
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var in usersvc.UpdateUserInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	u, err := h.Service.UpdateUser(c.Context(), id, in)
	if err != nil {
		return response.Fail(c, err)
	}
	middleware.SetSessionUser(c, middleware.SessionUserFor(u))
	return response.Success(c, "User updated successfully", fiber.Map{"user": u}, nil)
}
