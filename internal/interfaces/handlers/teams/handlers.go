package teams

import (
	policies "swifttasks-backend/internal/application/policies/teams"
	teamsvc "swifttasks-backend/internal/application/teams"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Service *teamsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type RemoveMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// reissue ends all of the caller's sessions after a membership change and issues a fresh one.
func (h *Handlers) reissue(c *fiber.Ctx, u *domain.User) {
	policies.DestroyUserSessions(c.Context(), h.Rdb, u.UserID.String())
	if err := middleware.IssueSession(c, h.Rdb, h.Config, middleware.SessionUserFor(u)); err != nil {
		log.Warn().Err(err).Str("user_id", u.UserID.String()).Msg("session reissue failed")
	}
}

// CreateTeam POST /api/v1/teams/create-team
func (h *Handlers) CreateTeam(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req CreateTeamRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	team, owner, err := h.Service.CreateTeam(c.Context(), id, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	h.reissue(c, owner)
	return response.SuccessCreated(c, "Team created successfully", fiber.Map{"team": team, "user": owner}, nil)
}

// ViewTeam GET /api/v1/teams/view-team
func (h *Handlers) ViewTeam(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	view, err := h.Service.ViewTeam(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Team found", view, nil)
}

// RemoveMember DELETE /api/v1/teams/remove-member. Owner only (AuthorizeTeam on the route).
func (h *Handlers) RemoveMember(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req RemoveMemberRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	removed, err := h.Service.RemoveMember(c.Context(), id, req.UserID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Member removed from team", fiber.Map{"user_id": removed.UserID}, nil)
}

// LeaveTeam POST /api/v1/teams/leave-team
func (h *Handlers) LeaveTeam(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	u, err := h.Service.LeaveTeam(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	h.reissue(c, u)
	return response.Success(c, "You have left the team", fiber.Map{"user": u}, nil)
}
