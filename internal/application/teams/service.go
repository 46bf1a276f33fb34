package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/notifications"
	policies "swifttasks-backend/internal/application/policies/teams"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrTeamNameRequired = apperr.New(apperr.KindValidation, "Team name is required")
	ErrTeamNotFound     = apperr.New(apperr.KindNotFound, "Team not found")
)

// Service manages teams and membership.
type Service struct {
	DB            *gorm.DB
	Rdb           *redis.Client
	Notifications *notifications.Service
}

// CreateTeam makes the caller owner of a new team and moves their personal projects, doc
// spaces, todo lists and calendar events into it. Returns the team and the updated profile.
func (s *Service) CreateTeam(ctx context.Context, id access.Identity, name string) (*domain.Team, *domain.User, error) {
	if err := policies.ValidateTeamCreation(id); err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrTeamNameRequired
	}

	team := &domain.Team{Name: name, OwnerID: id.UserID}
	var owner domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id.UserID).First(&owner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return policies.ErrUserNotFound
			}
			return apperr.Backend("load profile", err)
		}
		if owner.TeamID != nil {
			return policies.ErrAlreadyInTeam
		}
		if err := tx.Create(team).Error; err != nil {
			return apperr.Backend("create team", err)
		}
		for _, model := range []interface{}{&domain.Project{}, &domain.DocSpace{}, &domain.TodoList{}, &domain.CalendarEvent{}} {
			if err := tx.Model(model).Scopes(access.Personal(id.UserID)).
				Update("team_id", team.TeamID).Error; err != nil {
				return apperr.Backend("move personal content", err)
			}
		}
		owner.AccountType = domain.AccountTeamMember
		owner.TeamID = &team.TeamID
		owner.IsTeamOwner = true
		if err := tx.Save(&owner).Error; err != nil {
			return apperr.Backend("update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("team_id", team.TeamID.String()).Str("owner_id", id.UserID.String()).Msg("team created")
	return team, &owner, nil
}

// Member is a team member as listed to other members.
type Member struct {
	UserID      string    `json:"user_id"`
	Fullname    string    `json:"fullname"`
	Email       string    `json:"email"`
	IsTeamOwner bool      `json:"is_team_owner"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// TeamView is the team page payload.
type TeamView struct {
	Team               domain.Team             `json:"team"`
	Members            []Member                `json:"members"`
	PendingInvitations int64                   `json:"pending_invitations"`
	Limits             constants.Limits        `json:"limits"`
	Capabilities       access.TeamCapabilities `json:"capabilities"`
}

// ViewTeam returns the caller's team with its members.
func (s *Service) ViewTeam(ctx context.Context, id access.Identity) (*TeamView, error) {
	if id.TeamID == nil {
		return nil, policies.ErrNotInTeam
	}
	caps := access.DecideTeam(id, *id.TeamID)
	if err := access.Require(caps.ViewMembers); err != nil {
		return nil, err
	}
	var team domain.Team
	if err := s.DB.WithContext(ctx).Where("team_id = ?", *id.TeamID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, apperr.Backend("load team", err)
	}
	var users []domain.User
	if err := s.DB.WithContext(ctx).Where("team_id = ?", team.TeamID).
		Order("is_team_owner DESC, fullname ASC").Find(&users).Error; err != nil {
		return nil, apperr.Backend("list members", err)
	}
	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{
			UserID:      u.UserID.String(),
			Fullname:    u.Fullname,
			Email:       u.Email,
			IsTeamOwner: u.IsTeamOwner,
			JoinedAt:    u.UpdatedAt,
		})
	}
	var pending int64
	if err := s.DB.WithContext(ctx).Model(&domain.Invitation{}).
		Where("team_id = ? AND expires_at > ?", team.TeamID, time.Now()).Count(&pending).Error; err != nil {
		return nil, apperr.Backend("count invitations", err)
	}
	return &TeamView{
		Team:               team,
		Members:            members,
		PendingInvitations: pending,
		Limits:             constants.TeamLimits,
		Capabilities:       caps,
	}, nil
}

// RemoveMember reverts target to a single account and destroys their sessions. Content they
// created stays with the team.
func (s *Service) RemoveMember(ctx context.Context, id access.Identity, targetID uuid.UUID) (*domain.User, error) {
	target, err := policies.ValidateMemberRemoval(ctx, s.DB, id, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.detach(ctx, target); err != nil {
		return nil, err
	}
	policies.DestroyUserSessions(ctx, s.Rdb, target.UserID.String())

	if s.Notifications != nil {
		var team domain.Team
		teamName := "the team"
		if err := s.DB.WithContext(ctx).Where("team_id = ?", *id.TeamID).First(&team).Error; err == nil {
			teamName = team.Name
		}
		if _, err := s.Notifications.Notify(ctx, nil, notifications.NewNotification{
			UserID:  target.UserID,
			Type:    domain.NotificationMemberRemoved,
			Message: fmt.Sprintf("You were removed from %s", teamName),
			Payload: map[string]interface{}{"team_id": id.TeamID.String()},
		}); err != nil {
			log.Warn().Err(err).Str("user_id", target.UserID.String()).Msg("member removed notification failed")
		}
	}
	log.Info().Str("team_id", id.TeamID.String()).Str("user_id", target.UserID.String()).Msg("member removed")
	return target, nil
}

// LeaveTeam reverts the caller to a single account. Owners cannot leave.
func (s *Service) LeaveTeam(ctx context.Context, id access.Identity) (*domain.User, error) {
	if err := policies.ValidateLeave(id); err != nil {
		return nil, err
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policies.ErrUserNotFound
		}
		return nil, apperr.Backend("load profile", err)
	}
	if err := s.detach(ctx, &u); err != nil {
		return nil, err
	}
	log.Info().Str("team_id", id.TeamID.String()).Str("user_id", id.UserID.String()).Msg("member left")
	return &u, nil
}

func (s *Service) detach(ctx context.Context, u *domain.User) error {
	u.AccountType = domain.AccountSingle
	u.TeamID = nil
	u.IsTeamOwner = false
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", u.UserID).
		Updates(map[string]interface{}{
			"account_type":  domain.AccountSingle,
			"team_id":       nil,
			"is_team_owner": false,
		}).Error; err != nil {
		return apperr.Backend("update profile", err)
	}
	return nil
}
