package middleware

import (
	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Team permissions checked at the route level.
const (
	PermViewMembers   = "view_members"
	PermInviteMembers = "invite_members"
	PermRemoveMembers = "remove_members"
	PermManageTeam    = "manage_team"
)

func allowed(caps access.TeamCapabilities, perm string) (bool, bool) {
	switch perm {
	case PermViewMembers:
		return caps.ViewMembers, true
	case PermInviteMembers:
		return caps.InviteMembers, true
	case PermRemoveMembers:
		return caps.RemoveMembers, true
	case PermManageTeam:
		return caps.ManageTeam, true
	}
	return false, false
}

// AuthorizeTeam rejects callers whose team capabilities lack perm.
// Not in a team -> 403; unknown permission -> 500.
func AuthorizeTeam(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if id.TeamID == nil {
			return response.Error(c, "You are not a member of any team", fiber.StatusForbidden, nil)
		}
		ok, known := allowed(access.DecideTeam(id, *id.TeamID), perm)
		if !known {
			return response.Error(c, "Permission configuration error", fiber.StatusInternalServerError, nil)
		}
		if !ok {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		return c.Next()
	}
}
