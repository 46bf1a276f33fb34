// Package migration converts a single account into a team member. Personal projects and
// documentation spaces cannot live in a team namespace, so they are destroyed; todo lists
// are kept and calendar events move into the team.
package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/notifications"
	policies "swifttasks-backend/internal/application/policies/teams"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/monitoring"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrTeamMismatch      = apperr.New(apperr.KindInvalidInvitation, "Invitation does not belong to this team")
	ErrEmailMismatch     = apperr.New(apperr.KindEmailMismatch, "This invitation was sent to a different email address")
	ErrInAnotherTeam     = apperr.New(apperr.KindConflict, "You already belong to another team")
	ErrConfirmRequired   = apperr.New(apperr.KindValidation, "confirmMigration must be true")
	ErrTeamIDRequired    = apperr.New(apperr.KindValidation, "teamId is required")
	ErrInviteCodeMissing = apperr.New(apperr.KindValidation, "inviteCode is required")
)

// Service runs the team-join workflow.
type Service struct {
	DB            *gorm.DB
	Invitations   *invitations.Service
	Notifications *notifications.Service
	Metrics       *monitoring.Metrics
}

// Request identifies the invitation being accepted.
type Request struct {
	TeamID     uuid.UUID
	InviteCode string
}

func (r Request) check() error {
	if r.TeamID == uuid.Nil {
		return ErrTeamIDRequired
	}
	if strings.TrimSpace(r.InviteCode) == "" {
		return ErrInviteCodeMissing
	}
	return nil
}

// ContentCounts are the caller's personal rows. Projects and Spaces are destroyed on join;
// TodoLists are informational.
type ContentCounts struct {
	Projects  int64 `json:"projects"`
	Spaces    int64 `json:"spaces"`
	TodoLists int64 `json:"todoLists"`
	Events    int64 `json:"events"`
}

// Destructible reports whether joining would delete anything.
func (c ContentCounts) Destructible() bool {
	return c.Projects > 0 || c.Spaces > 0
}

// AuditResult is the validated invitation plus the content that joining would affect.
type AuditResult struct {
	Invite *invitations.ValidInvite
	Counts ContentCounts
}

// Outcome is the response of either phase.
type Outcome struct {
	Success       bool           `json:"success,omitempty"`
	HasContent    bool           `json:"hasContent"`
	ContentCounts *ContentCounts `json:"contentCounts,omitempty"`

	// User is the refreshed profile after a completed join.
	User *domain.User `json:"-"`
}

// Deleted tallies what the executor removed, plus the events it carried into the team.
type Deleted struct {
	Projects    int64
	Boards      int64
	Columns     int64
	Items       int64
	Spaces      int64
	Pages       int64
	Invitations int64
	EventsMoved int64
}

// Audit validates the invitation for id and counts id's personal content. Nothing is mutated.
func (s *Service) Audit(ctx context.Context, id access.Identity, req Request) (*AuditResult, error) {
	invite, err := s.authorize(ctx, id, req)
	if err != nil {
		return nil, err
	}
	counts, err := s.count(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return &AuditResult{Invite: invite, Counts: counts}, nil
}

// Process is the first phase: audit, and join straight away when nothing would be destroyed.
func (s *Service) Process(ctx context.Context, id access.Identity, req Request) (*Outcome, error) {
	audit, err := s.Audit(ctx, id, req)
	if err != nil {
		s.Metrics.RecordMigration("audit", outcomeLabel(err))
		return nil, err
	}
	if audit.Counts.Destructible() {
		s.Metrics.RecordMigration("audit", "has_content")
		counts := audit.Counts
		return &Outcome{HasContent: true, ContentCounts: &counts}, nil
	}
	s.Metrics.RecordMigration("audit", "empty")
	user, err := s.run(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return &Outcome{Success: true, HasContent: false, User: user}, nil
}

// Confirm is the second phase: with explicit confirmation, re-validate and join.
func (s *Service) Confirm(ctx context.Context, id access.Identity, req Request, confirmed bool) (*Outcome, error) {
	if !confirmed {
		return nil, ErrConfirmRequired
	}
	if _, err := s.authorize(ctx, id, req); err != nil {
		s.Metrics.RecordMigration("confirm", outcomeLabel(err))
		return nil, err
	}
	s.Metrics.RecordMigration("confirm", "accepted")
	user, err := s.run(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return &Outcome{Success: true, HasContent: false, User: user}, nil
}

// authorize runs every check that must pass before any mutation.
func (s *Service) authorize(ctx context.Context, id access.Identity, req Request) (*invitations.ValidInvite, error) {
	if id.UserID == uuid.Nil {
		return nil, access.ErrAuthenticationRequired
	}
	if err := req.check(); err != nil {
		return nil, err
	}
	invite, err := s.Invitations.Validate(ctx, req.InviteCode)
	if err != nil {
		return nil, err
	}
	if err := matches(invite, id, req); err != nil {
		return nil, err
	}
	var profile domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.UserID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policies.ErrUserNotFound
		}
		return nil, apperr.Backend("load profile", err)
	}
	if profile.TeamID != nil && *profile.TeamID != req.TeamID {
		return nil, ErrInAnotherTeam
	}
	return invite, nil
}

func matches(invite *invitations.ValidInvite, id access.Identity, req Request) error {
	if invite.Invitation.TeamID != req.TeamID {
		return ErrTeamMismatch
	}
	if !strings.EqualFold(strings.TrimSpace(invite.Invitation.Email), strings.TrimSpace(id.Email)) {
		return ErrEmailMismatch
	}
	return nil
}

func (s *Service) count(ctx context.Context, userID uuid.UUID) (ContentCounts, error) {
	var c ContentCounts
	db := s.DB.WithContext(ctx)
	if err := db.Model(&domain.Project{}).Scopes(access.Personal(userID)).Count(&c.Projects).Error; err != nil {
		return c, apperr.Backend("count projects", err)
	}
	if err := db.Model(&domain.DocSpace{}).Scopes(access.Personal(userID)).Count(&c.Spaces).Error; err != nil {
		return c, apperr.Backend("count doc spaces", err)
	}
	if err := db.Model(&domain.TodoList{}).Scopes(access.Personal(userID)).Count(&c.TodoLists).Error; err != nil {
		return c, apperr.Backend("count todo lists", err)
	}
	if err := db.Model(&domain.CalendarEvent{}).Scopes(access.Personal(userID)).Count(&c.Events).Error; err != nil {
		return c, apperr.Backend("count calendar events", err)
	}
	return c, nil
}

// run executes the join in one transaction, then clears the invite notifications. The
// invitation is checked again inside the transaction and must still exist when it is consumed.
func (s *Service) run(ctx context.Context, id access.Identity, req Request) (*domain.User, error) {
	code := strings.TrimSpace(req.InviteCode)
	var deleted Deleted
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.Invitations.ValidateTx(ctx, tx, code)
		if err != nil {
			return err
		}
		if err := matches(invite, id, req); err != nil {
			return err
		}
		deleted, err = Execute(tx, id.UserID, req.TeamID, code)
		if err != nil {
			return err
		}
		if deleted.Invitations == 0 {
			return invitations.ErrInvitationNotFound
		}
		return nil
	})
	if err != nil {
		s.Metrics.RecordMigration("execute", "failed")
		log.Error().Err(err).Str("user_id", id.UserID.String()).Str("team_id", req.TeamID.String()).
			Msg("team join rolled back")
		if apperr.KindOf(err) != apperr.KindBackend {
			return nil, err
		}
		return nil, apperr.Backend("team join", err)
	}
	s.Metrics.RecordMigration("execute", "success")
	log.Info().Str("user_id", id.UserID.String()).Str("team_id", req.TeamID.String()).
		Int64("projects", deleted.Projects).Int64("boards", deleted.Boards).
		Int64("columns", deleted.Columns).Int64("items", deleted.Items).
		Int64("spaces", deleted.Spaces).Int64("pages", deleted.Pages).
		Int64("events_moved", deleted.EventsMoved).
		Msg("team join completed")

	if n, err := notifications.DeleteByInviteCode(ctx, s.DB, code); err != nil {
		log.Warn().Err(err).Str("user_id", id.UserID.String()).Msg("invite notification cleanup failed")
	} else if n > 0 {
		log.Debug().Int64("removed", n).Msg("invite notifications cleared")
	}

	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.UserID).First(&user).Error; err != nil {
		return nil, apperr.Backend("reload profile", err)
	}
	s.announce(ctx, &user, req.TeamID)
	return &user, nil
}

// announce tells the team owner someone joined. Best-effort.
func (s *Service) announce(ctx context.Context, user *domain.User, teamID uuid.UUID) {
	if s.Notifications == nil {
		return
	}
	var team domain.Team
	if err := s.DB.WithContext(ctx).Where("team_id = ?", teamID).First(&team).Error; err != nil {
		log.Warn().Err(err).Str("team_id", teamID.String()).Msg("member joined notification skipped")
		return
	}
	if team.OwnerID == user.UserID {
		return
	}
	if _, err := s.Notifications.Notify(ctx, nil, notifications.NewNotification{
		UserID:  team.OwnerID,
		Type:    domain.NotificationMemberJoined,
		Message: fmt.Sprintf("%s joined %s", user.Fullname, team.Name),
		Payload: map[string]interface{}{"team_id": teamID.String(), "user_id": user.UserID.String()},
	}); err != nil {
		log.Warn().Err(err).Str("team_id", teamID.String()).Msg("member joined notification failed")
	}
}

// Execute performs the join against tx: delete personal kanban content child-first, delete
// personal doc spaces and pages, move personal calendar events into teamID, move the profile
// into teamID and consume the invitation. Running it again after success changes nothing.
func Execute(tx *gorm.DB, userID, teamID uuid.UUID, code string) (Deleted, error) {
	var d Deleted

	var projectIDs []uuid.UUID
	if err := tx.Model(&domain.Project{}).Scopes(access.Personal(userID)).Pluck("project_id", &projectIDs).Error; err != nil {
		return d, fmt.Errorf("select projects: %w", err)
	}
	if len(projectIDs) > 0 {
		var boardIDs, columnIDs []uuid.UUID
		if err := tx.Model(&domain.Board{}).Where("project_id IN ?", projectIDs).Pluck("board_id", &boardIDs).Error; err != nil {
			return d, fmt.Errorf("select boards: %w", err)
		}
		if len(boardIDs) > 0 {
			if err := tx.Model(&domain.Column{}).Where("board_id IN ?", boardIDs).Pluck("column_id", &columnIDs).Error; err != nil {
				return d, fmt.Errorf("select columns: %w", err)
			}
		}
		if len(columnIDs) > 0 {
			res := tx.Where("column_id IN ?", columnIDs).Delete(&domain.Item{})
			if res.Error != nil {
				return d, fmt.Errorf("delete items: %w", res.Error)
			}
			d.Items = res.RowsAffected
			res = tx.Where("column_id IN ?", columnIDs).Delete(&domain.Column{})
			if res.Error != nil {
				return d, fmt.Errorf("delete columns: %w", res.Error)
			}
			d.Columns = res.RowsAffected
		}
		if len(boardIDs) > 0 {
			// Doc pages may embed these boards; the reference is cleared, the page stays.
			if err := tx.Model(&domain.DocPage{}).Where("embedded_board_id IN ?", boardIDs).
				Update("embedded_board_id", nil).Error; err != nil {
				return d, fmt.Errorf("detach embedded boards: %w", err)
			}
			res := tx.Where("board_id IN ?", boardIDs).Delete(&domain.Board{})
			if res.Error != nil {
				return d, fmt.Errorf("delete boards: %w", res.Error)
			}
			d.Boards = res.RowsAffected
		}
		res := tx.Where("project_id IN ?", projectIDs).Delete(&domain.Project{})
		if res.Error != nil {
			return d, fmt.Errorf("delete projects: %w", res.Error)
		}
		d.Projects = res.RowsAffected
	}

	var spaceIDs []uuid.UUID
	if err := tx.Model(&domain.DocSpace{}).Scopes(access.Personal(userID)).Pluck("space_id", &spaceIDs).Error; err != nil {
		return d, fmt.Errorf("select doc spaces: %w", err)
	}
	if len(spaceIDs) > 0 {
		res := tx.Where("space_id IN ?", spaceIDs).Delete(&domain.DocPage{})
		if res.Error != nil {
			return d, fmt.Errorf("delete pages: %w", res.Error)
		}
		d.Pages = res.RowsAffected
		res = tx.Where("space_id IN ?", spaceIDs).Delete(&domain.DocSpace{})
		if res.Error != nil {
			return d, fmt.Errorf("delete doc spaces: %w", res.Error)
		}
		d.Spaces = res.RowsAffected
	}

	res := tx.Model(&domain.CalendarEvent{}).Scopes(access.Personal(userID)).Update("team_id", teamID)
	if res.Error != nil {
		return d, fmt.Errorf("move calendar events: %w", res.Error)
	}
	d.EventsMoved = res.RowsAffected

	res = tx.Model(&domain.User{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"account_type":  domain.AccountTeamMember,
		"team_id":       teamID,
		"is_team_owner": false,
	})
	if res.Error != nil {
		return d, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return d, fmt.Errorf("update profile: %w", gorm.ErrRecordNotFound)
	}

	res = tx.Where("invite_code = ?", code).Delete(&domain.Invitation{})
	if res.Error != nil {
		return d, fmt.Errorf("delete invitation: %w", res.Error)
	}
	d.Invitations = res.RowsAffected
	return d, nil
}

func outcomeLabel(err error) string {
	return apperr.KindOf(err).String()
}
