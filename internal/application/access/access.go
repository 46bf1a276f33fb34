// Package access decides what an identity may do with a piece of content. Every service passes
// the caller's Identity explicitly; nothing here reads request state.
package access

import (
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAuthenticationRequired = apperr.New(apperr.KindAuthenticationRequired, "Unauthorized")
	ErrPermissionDenied       = apperr.New(apperr.KindPermissionDenied, "You do not have permission to perform this action")
	ErrLimitReached           = apperr.New(apperr.KindLimitReached, "Plan limit reached")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	Fullname    string
	AccountType string
	TeamID      *uuid.UUID
	IsTeamOwner bool
}

// IdentityFromUser builds an Identity from a freshly loaded profile.
func IdentityFromUser(u *domain.User) Identity {
	return Identity{
		UserID:      u.UserID,
		Email:       u.Email,
		Fullname:    u.Fullname,
		AccountType: u.AccountType,
		TeamID:      u.TeamID,
		IsTeamOwner: u.IsTeamOwner,
	}
}

// InTeam reports whether the identity is a member (or owner) of teamID.
func (id Identity) InTeam(teamID uuid.UUID) bool {
	return id.TeamID != nil && *id.TeamID == teamID
}

// Resource is the ownership of a content row.
type Resource struct {
	OwnerID uuid.UUID
	TeamID  *uuid.UUID
}

// Capabilities is what an identity may do with a resource.
type Capabilities struct {
	View   bool `json:"can_view"`
	Edit   bool `json:"can_edit"`
	Delete bool `json:"can_delete"`
	Manage bool `json:"can_manage"`
}

var (
	none = Capabilities{}
	all  = Capabilities{View: true, Edit: true, Delete: true, Manage: true}
)

// Decide returns the capabilities of id on r.
//
// Personal content is fully controlled by its owner and invisible to everyone else. Team
// content is visible and editable by every member; the team owner may do anything and a
// member may delete what they created.
func Decide(id Identity, r Resource) Capabilities {
	if id.UserID == uuid.Nil {
		return none
	}
	if r.TeamID == nil {
		if r.OwnerID == id.UserID && id.TeamID == nil {
			return all
		}
		return none
	}
	if !id.InTeam(*r.TeamID) {
		return none
	}
	if id.IsTeamOwner {
		return all
	}
	return Capabilities{View: true, Edit: true, Delete: r.OwnerID == id.UserID}
}

// TeamCapabilities is what an identity may do with a team itself.
type TeamCapabilities struct {
	ViewMembers   bool `json:"can_view_members"`
	InviteMembers bool `json:"can_invite_members"`
	RemoveMembers bool `json:"can_remove_members"`
	ManageTeam    bool `json:"can_manage_team"`
}

// DecideTeam returns the team-level capabilities of id on teamID.
func DecideTeam(id Identity, teamID uuid.UUID) TeamCapabilities {
	if !id.InTeam(teamID) {
		return TeamCapabilities{}
	}
	if id.IsTeamOwner {
		return TeamCapabilities{ViewMembers: true, InviteMembers: true, RemoveMembers: true, ManageTeam: true}
	}
	return TeamCapabilities{ViewMembers: true}
}

// LimitsFor returns the plan limits of the identity's namespace.
func LimitsFor(id Identity) constants.Limits {
	if id.TeamID != nil {
		return constants.TeamLimits
	}
	return constants.PersonalLimits
}

// Namespace scopes a query to the content the identity works in: its team's rows, or its
// own personal rows. table qualifies the columns when the query joins.
func Namespace(id Identity, table string) func(*gorm.DB) *gorm.DB {
	prefix := ""
	if table != "" {
		prefix = table + "."
	}
	return func(db *gorm.DB) *gorm.DB {
		if id.TeamID != nil {
			return db.Where(prefix+"team_id = ?", *id.TeamID)
		}
		return db.Where(prefix+"owner_id = ? AND "+prefix+"team_id IS NULL", id.UserID)
	}
}

// Personal scopes a query to rows owned by userID outside any team.
func Personal(userID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ? AND team_id IS NULL", userID)
	}
}

// NewResourceOwnership returns owner/team columns for content created by id.
func NewResourceOwnership(id Identity) (uuid.UUID, *uuid.UUID) {
	if id.TeamID == nil {
		return id.UserID, nil
	}
	teamID := *id.TeamID
	return id.UserID, &teamID
}

// Require returns ErrPermissionDenied unless ok.
func Require(ok bool) error {
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// CheckLimit returns ErrLimitReached when current has reached max.
func CheckLimit(current int64, max int) error {
	if current >= int64(max) {
		return ErrLimitReached
	}
	return nil
}
