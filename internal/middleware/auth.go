package middleware

import (
	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentIdentity(c); !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the raw session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentIdentity decodes the session user into the explicit identity passed to services.
func CurrentIdentity(c *fiber.Ctx) (access.Identity, bool) {
	m, ok := GetUser(c).(map[string]interface{})
	if !ok {
		return access.Identity{}, false
	}
	userID, err := uuid.Parse(str(m["user_id"]))
	if err != nil {
		return access.Identity{}, false
	}
	id := access.Identity{
		UserID:      userID,
		Email:       str(m["email"]),
		Fullname:    str(m["fullname"]),
		AccountType: str(m["account_type"]),
	}
	if id.AccountType == "" {
		id.AccountType = domain.AccountSingle
	}
	if t, err := uuid.Parse(str(m["team_id"])); err == nil {
		id.TeamID = &t
	}
	id.IsTeamOwner, _ = m["is_team_owner"].(bool)
	return id, true
}

// SessionUserFor converts a profile into the session shape.
func SessionUserFor(u *domain.User) SessionUser {
	var teamID *string
	if u.TeamID != nil {
		s := u.TeamID.String()
		teamID = &s
	}
	return SessionUser{
		UserID:      u.UserID.String(),
		Fullname:    u.Fullname,
		Email:       u.Email,
		AccountType: u.AccountType,
		TeamID:      teamID,
		IsTeamOwner: u.IsTeamOwner,
	}
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
