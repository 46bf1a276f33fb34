package invitations

import (
	invsvc "swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/migration"
	policies "swifttasks-backend/internal/application/policies/teams"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers serves /api/v1/team-invite.
type Handlers struct {
	Service   *invsvc.Service
	Migration *migration.Service
	Rdb       *redis.Client
	Config    middleware.SessionConfig
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// MigrationRequest is the body of both process-content-migration phases.
type MigrationRequest struct {
	TeamID           string `json:"teamId"`
	InviteCode       string `json:"inviteCode"`
	ConfirmMigration bool   `json:"confirmMigration"`
}

func (r MigrationRequest) toRequest() (migration.Request, error) {
	if r.TeamID == "" {
		return migration.Request{}, migration.ErrTeamIDRequired
	}
	teamID, err := uuid.Parse(r.TeamID)
	if err != nil {
		return migration.Request{}, migration.ErrTeamIDRequired
	}
	return migration.Request{TeamID: teamID, InviteCode: r.InviteCode}, nil
}

// CreateInvite POST /api/v1/team-invite/create-invite
func (h *Handlers) CreateInvite(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req EmailRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	inv, err := h.Service.Create(c.Context(), id, req.Email)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Invitation sent", fiber.Map{
		"invitation":  inv,
		"invite_link": h.Service.InviteLink(inv.InviteCode),
	}, nil)
}

// ViewInvites GET /api/v1/team-invite/view-invites
func (h *Handlers) ViewInvites(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	invites, err := h.Service.List(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Invitations found", fiber.Map{"invitations": invites}, nil)
}

// RevokeInvite DELETE /api/v1/team-invite/revoke-invite
func (h *Handlers) RevokeInvite(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req EmailRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	if err := h.Service.Revoke(c.Context(), id, req.Email); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Invitation revoked", nil, nil)
}

// Validate GET /api/v1/team-invite/validate?code=. Public. Failures carry details.valid=false.
func (h *Handlers) Validate(c *fiber.Ctx) error {
	invite, err := h.Service.Validate(c.Context(), c.Query("code"))
	if err != nil {
		return response.FailWithDetails(c, err, map[string]interface{}{"valid": false})
	}
	return response.Success(c, "Invitation is valid", fiber.Map{"valid": true, "invite": invite}, nil)
}

// ProcessMigration POST /api/v1/team-invite/process-content-migration. Audit; joins at once
// when the caller has nothing that would be destroyed.
func (h *Handlers) ProcessMigration(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var body MigrationRequest
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	req, err := body.toRequest()
	if err != nil {
		return response.Fail(c, err)
	}
	out, err := h.Migration.Process(c.Context(), id, req)
	if err != nil {
		return response.Fail(c, err)
	}
	if !out.Success {
		return response.Success(c, "Personal content will be deleted on joining", out, nil)
	}
	h.reissue(c, out)
	return response.Success(c, "Joined team successfully", out, nil)
}

// ConfirmMigration PUT /api/v1/team-invite/process-content-migration. Requires
// confirmMigration=true, deletes personal content and joins.
func (h *Handlers) ConfirmMigration(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var body MigrationRequest
	if ok, err := request.Bind(c, &body); !ok {
		return err
	}
	req, err := body.toRequest()
	if err != nil {
		return response.Fail(c, err)
	}
	out, err := h.Migration.Confirm(c.Context(), id, req, body.ConfirmMigration)
	if err != nil {
		return response.Fail(c, err)
	}
	h.reissue(c, out)
	return response.Success(c, "Joined team successfully", out, nil)
}

// reissue ends every session of the joined user, the caller's included, and issues the
// caller a fresh one carrying the team identity.
func (h *Handlers) reissue(c *fiber.Ctx, out *migration.Outcome) {
	if out.User == nil {
		return
	}
	policies.DestroyUserSessions(c.Context(), h.Rdb, out.User.UserID.String())
	if err := middleware.IssueSession(c, h.Rdb, h.Config, middleware.SessionUserFor(out.User)); err != nil {
		log.Warn().Err(err).Str("user_id", out.User.UserID.String()).Msg("session reissue after join failed")
	}
}
