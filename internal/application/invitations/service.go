package invitations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/emails"
	"swifttasks-backend/internal/application/notifications"
	policies "swifttasks-backend/internal/application/policies/teams"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/monitoring"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const DefaultTTL = 7 * 24 * time.Hour

var (
	ErrCodeRequired       = apperr.New(apperr.KindValidation, "Invite code is required")
	ErrInvitationNotFound = apperr.New(apperr.KindInvalidInvitation, "Invitation not found")
	ErrInvitationExpired  = apperr.New(apperr.KindInvitationExpired, "Invitation has expired")
	ErrPendingNotFound    = apperr.New(apperr.KindNotFound, "Pending invitation not found")
)

// Service manages team invitations.
type Service struct {
	DB            *gorm.DB
	Email         emails.Sender
	Notifications *notifications.Service
	Metrics       *monitoring.Metrics
	InviteBaseURL string
	TTL           time.Duration
	Now           func() time.Time
	// Rand sources invite codes; crypto/rand when nil.
	Rand io.Reader
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultTTL
}

// ValidInvite is what a valid code resolves to.
type ValidInvite struct {
	TeamID     string `json:"teamId"`
	TeamName   string `json:"teamName"`
	InviteCode string `json:"inviteCode"`

	Invitation *domain.Invitation `json:"-"`
}

// Validate resolves an invite code. Unknown codes are InvalidInvitation, elapsed ones
// InvitationExpired. Email is not checked here.
func (s *Service) Validate(ctx context.Context, code string) (*ValidInvite, error) {
	return s.validateWith(ctx, s.DB, code)
}

// ValidateTx is Validate against an open transaction.
func (s *Service) ValidateTx(ctx context.Context, tx *gorm.DB, code string) (*ValidInvite, error) {
	return s.validateWith(ctx, tx, code)
}

func (s *Service) validateWith(ctx context.Context, db *gorm.DB, code string) (*ValidInvite, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrCodeRequired
	}
	var inv domain.Invitation
	if err := db.WithContext(ctx).Where("invite_code = ?", code).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, apperr.Backend("lookup invitation", err)
	}
	if inv.Expired(s.now()) {
		return nil, ErrInvitationExpired
	}
	var team domain.Team
	teamName := ""
	if err := db.WithContext(ctx).Where("team_id = ?", inv.TeamID).First(&team).Error; err == nil {
		teamName = team.Name
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvitationNotFound
	} else {
		return nil, apperr.Backend("lookup team", err)
	}
	return &ValidInvite{
		TeamID:     inv.TeamID.String(),
		TeamName:   teamName,
		InviteCode: inv.InviteCode,
		Invitation: &inv,
	}, nil
}

// Create issues a new invitation from the team owner to email. The email and the in-app
// notification are best-effort.
func (s *Service) Create(ctx context.Context, actor access.Identity, email string) (*domain.Invitation, error) {
	now := s.now()
	if err := policies.ValidateInviteCreation(ctx, s.DB, actor, email, now); err != nil {
		s.Metrics.RecordInvitation("rejected")
		return nil, err
	}
	teamID := *actor.TeamID
	normalized := strings.ToLower(strings.TrimSpace(email))

	var team domain.Team
	if err := s.DB.WithContext(ctx).Where("team_id = ?", teamID).First(&team).Error; err != nil {
		return nil, apperr.Backend("lookup team", err)
	}

	inviteCode, err := s.randomHex(32)
	if err != nil {
		return nil, apperr.Backend("generate invite code", err)
	}
	inv := &domain.Invitation{
		InviteCode: inviteCode,
		TeamID:     teamID,
		Email:      normalized,
		InvitedBy:  actor.UserID,
		ExpiresAt:  now.Add(s.ttl()),
	}
	var invitee *domain.User
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Stale invitations for the same address are replaced.
		if err := tx.Where("team_id = ? AND email = ? AND expires_at <= ?", teamID, normalized, now).
			Delete(&domain.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		var u domain.User
		if err := tx.Where("email = ?", normalized).First(&u).Error; err == nil {
			invitee = &u
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Backend("create invitation", err)
	}
	s.Metrics.RecordInvitation("created")

	if invitee != nil && s.Notifications != nil {
		code := inv.InviteCode
		if _, err := s.Notifications.Notify(ctx, nil, notifications.NewNotification{
			UserID:     invitee.UserID,
			Type:       domain.NotificationTeamInvite,
			Message:    fmt.Sprintf("%s invited you to join %s", inviterName(actor), team.Name),
			InviteCode: &code,
			Payload: map[string]interface{}{
				"team_id":    teamID.String(),
				"team_name":  team.Name,
				"invited_by": actor.UserID.String(),
			},
		}); err != nil {
			log.Warn().Err(err).Str("team_id", teamID.String()).Msg("invite notification failed")
		}
	}
	if s.Email != nil {
		if err := s.Email.SendTeamInvite(ctx, emails.TeamInvite{
			ToEmail:     normalized,
			InviteLink:  s.InviteLink(inv.InviteCode),
			TeamName:    team.Name,
			InviterName: actor.Fullname,
			ExpiresAt:   inv.ExpiresAt,
		}); err != nil {
			log.Warn().Err(err).Str("team_id", teamID.String()).Msg("invite email failed")
		}
	}
	return inv, nil
}

// InviteLink builds the join link for code.
func (s *Service) InviteLink(code string) string {
	base := strings.TrimRight(s.InviteBaseURL, "/")
	return base + "?code=" + url.QueryEscape(code)
}

// List returns the team's invitations, newest first. Owner only.
func (s *Service) List(ctx context.Context, actor access.Identity) ([]domain.Invitation, error) {
	if actor.TeamID == nil {
		return nil, policies.ErrNotInTeam
	}
	if err := access.Require(access.DecideTeam(actor, *actor.TeamID).InviteMembers); err != nil {
		return nil, err
	}
	var out []domain.Invitation
	if err := s.DB.WithContext(ctx).Where("team_id = ?", *actor.TeamID).
		Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Backend("list invitations", err)
	}
	return out, nil
}

// Revoke deletes the team's invitation for email and the notifications that point at it.
func (s *Service) Revoke(ctx context.Context, actor access.Identity, email string) error {
	if actor.TeamID == nil {
		return policies.ErrNotInTeam
	}
	if err := access.Require(access.DecideTeam(actor, *actor.TeamID).InviteMembers); err != nil {
		return err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var codes []string
		if err := tx.Model(&domain.Invitation{}).Where("team_id = ? AND email = ?", *actor.TeamID, normalized).
			Pluck("invite_code", &codes).Error; err != nil {
			return apperr.Backend("lookup invitation", err)
		}
		if len(codes) == 0 {
			return ErrPendingNotFound
		}
		if err := tx.Where("invite_code IN ?", codes).Delete(&domain.Invitation{}).Error; err != nil {
			return apperr.Backend("delete invitation", err)
		}
		if _, err := notifications.DeleteByInviteCode(ctx, tx, codes...); err != nil {
			return apperr.Backend("delete invite notifications", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Metrics.RecordInvitation("revoked")
	return nil
}

// PurgeExpired deletes invitations that expired before now, with their notifications.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	var purged int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var codes []string
		if err := tx.Model(&domain.Invitation{}).Where("expires_at <= ?", s.now()).
			Pluck("invite_code", &codes).Error; err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		if _, err := notifications.DeleteByInviteCode(ctx, tx, codes...); err != nil {
			return err
		}
		res := tx.Where("invite_code IN ?", codes).Delete(&domain.Invitation{})
		purged = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.Metrics.RecordInvitation("expired")
	}
	return purged, nil
}

func inviterName(actor access.Identity) string {
	if actor.Fullname != "" {
		return actor.Fullname
	}
	return actor.Email
}

func (s *Service) randomHex(n int) (string, error) {
	r := s.Rand
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
