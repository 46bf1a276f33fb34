package policies

import (
	"context"
	"errors"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidateMemberRemoval returns the target profile when actor may remove it from the team.
func ValidateMemberRemoval(ctx context.Context, db *gorm.DB, actor access.Identity, targetID uuid.UUID) (*domain.User, error) {
	if actor.TeamID == nil {
		return nil, ErrNotInTeam
	}
	if !access.DecideTeam(actor, *actor.TeamID).RemoveMembers {
		return nil, ErrOnlyOwnerCanRemove
	}
	if actor.UserID == targetID {
		return nil, ErrCannotRemoveYourself
	}
	var target domain.User
	if err := db.WithContext(ctx).Where("user_id = ?", targetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Backend("lookup member", err)
	}
	if target.TeamID == nil || *target.TeamID != *actor.TeamID {
		return nil, ErrUserNotInYourTeam
	}
	return &target, nil
}

// ValidateLeave checks that actor may leave their team. Owners cannot.
func ValidateLeave(actor access.Identity) error {
	if actor.TeamID == nil {
		return ErrNotInTeam
	}
	if actor.IsTeamOwner {
		return ErrOwnerCannotLeave
	}
	return nil
}

// ValidateTeamCreation checks that actor is free to create a team.
func ValidateTeamCreation(actor access.Identity) error {
	if actor.TeamID != nil {
		return ErrAlreadyInTeam
	}
	return nil
}
