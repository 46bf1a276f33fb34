package policies

import (
	"context"
	"errors"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidateInviteCreation checks that actor may invite email into their team at now.
func ValidateInviteCreation(ctx context.Context, db *gorm.DB, actor access.Identity, email string, now time.Time) error {
	if actor.TeamID == nil {
		return ErrNotInTeam
	}
	teamID := *actor.TeamID
	if !access.DecideTeam(actor, teamID).InviteMembers {
		return ErrOnlyOwnerCanInvite
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == strings.ToLower(actor.Email) {
		return ErrCannotInviteYourself
	}

	var user domain.User
	err := db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error
	if err == nil {
		if user.TeamID != nil && *user.TeamID == teamID {
			return ErrAlreadyMember
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Backend("lookup invitee", err)
	}

	var pending int64
	if err := db.WithContext(ctx).Model(&domain.Invitation{}).
		Where("team_id = ? AND email = ? AND expires_at > ?", teamID, normalized, now).
		Count(&pending).Error; err != nil {
		return apperr.Backend("count pending invitations", err)
	}
	if pending > 0 {
		return ErrPendingInviteExists
	}

	seats, err := SeatsInUse(ctx, db, teamID, now)
	if err != nil {
		return err
	}
	if seats >= int64(constants.TeamLimits.TeamMembers) {
		return ErrTeamFull
	}
	return nil
}

// SeatsInUse counts team members plus live pending invitations.
func SeatsInUse(ctx context.Context, db *gorm.DB, teamID uuid.UUID, now time.Time) (int64, error) {
	var members, pending int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Where("team_id = ?", teamID).Count(&members).Error; err != nil {
		return 0, apperr.Backend("count members", err)
	}
	if err := db.WithContext(ctx).Model(&domain.Invitation{}).
		Where("team_id = ? AND expires_at > ?", teamID, now).Count(&pending).Error; err != nil {
		return 0, apperr.Backend("count pending invitations", err)
	}
	return members + pending, nil
}
