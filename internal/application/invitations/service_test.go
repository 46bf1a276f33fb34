package invitations

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/emails"
	"swifttasks-backend/internal/application/notifications"
	policies "swifttasks-backend/internal/application/policies/teams"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingSender struct {
	mu      sync.Mutex
	invites []emails.TeamInvite
}

func (r *recordingSender) SendWelcome(context.Context, string, string) error { return nil }

func (r *recordingSender) SendTeamInvite(_ context.Context, invite emails.TeamInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invites = append(r.invites, invite)
	return nil
}

type fixture struct {
	db     *gorm.DB
	svc    *Service
	sender *recordingSender
	team   domain.Team
	owner  access.Identity
	now    time.Time
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Team{}, &domain.Invitation{}, &domain.Notification{}))

	owner := domain.User{Fullname: "Olive Owner", Email: "owner@test.com", PasswordHash: "x", AccountType: domain.AccountTeamMember, IsTeamOwner: true}
	require.NoError(t, db.Create(&owner).Error)
	team := domain.Team{Name: "Rockets", OwnerID: owner.UserID}
	require.NoError(t, db.Create(&team).Error)
	owner.TeamID = &team.TeamID
	require.NoError(t, db.Save(&owner).Error)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sender := &recordingSender{}
	svc := &Service{
		DB:            db,
		Email:         sender,
		Notifications: &notifications.Service{DB: db},
		InviteBaseURL: "https://app.swifttasks.io/join/",
		Now:           func() time.Time { return now },
	}
	return &fixture{db: db, svc: svc, sender: sender, team: team, owner: access.IdentityFromUser(&owner), now: now}
}

func TestCreate_IssuesCodeEmailAndNotification(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invitee := domain.User{Fullname: "Ian", Email: "ian@test.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&invitee).Error)

	inv, err := f.svc.Create(ctx, f.owner, "  IAN@test.com ")
	require.NoError(t, err)
	assert.Len(t, inv.InviteCode, 64)
	assert.Equal(t, "ian@test.com", inv.Email)
	assert.True(t, inv.ExpiresAt.Equal(f.now.Add(DefaultTTL)))

	require.Len(t, f.sender.invites, 1)
	assert.Equal(t, "https://app.swifttasks.io/join?code="+inv.InviteCode, f.sender.invites[0].InviteLink)
	assert.Equal(t, "Rockets", f.sender.invites[0].TeamName)

	var notes []domain.Notification
	require.NoError(t, f.db.Where("user_id = ?", invitee.UserID).Find(&notes).Error)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationTeamInvite, notes[0].Type)
	require.NotNil(t, notes[0].InviteCode)
	assert.Equal(t, inv.InviteCode, *notes[0].InviteCode)
}

func TestCreate_UnknownEmailHasNoNotification(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Create(context.Background(), f.owner, "new@test.com")
	require.NoError(t, err)
	var count int64
	f.db.Model(&domain.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreate_MemberIsDenied(t *testing.T) {
	f := setup(t)
	member := f.owner
	member.IsTeamOwner = false
	member.UserID = uuid.New()
	_, err := f.svc.Create(context.Background(), member, "x@test.com")
	assert.ErrorIs(t, err, policies.ErrOnlyOwnerCanInvite)
}

func TestCreate_ReplacesExpiredInvitation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: "stale", TeamID: f.team.TeamID, Email: "x@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now.Add(-time.Minute)}).Error)

	_, err := f.svc.Create(ctx, f.owner, "x@test.com")
	require.NoError(t, err)

	var codes []string
	f.db.Model(&domain.Invitation{}).Pluck("invite_code", &codes)
	assert.Len(t, codes, 1)
	assert.NotEqual(t, "stale", codes[0])
}

func TestValidate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: "live", TeamID: f.team.TeamID, Email: "a@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now.Add(time.Hour)}).Error)
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: "gone", TeamID: f.team.TeamID, Email: "b@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now.Add(-time.Hour)}).Error)
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: "edge", TeamID: f.team.TeamID, Email: "c@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now}).Error)

	got, err := f.svc.Validate(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, f.team.TeamID.String(), got.TeamID)
	assert.Equal(t, "Rockets", got.TeamName)
	assert.Equal(t, "live", got.InviteCode)

	_, err = f.svc.Validate(ctx, "gone")
	assert.ErrorIs(t, err, ErrInvitationExpired)
	_, err = f.svc.Validate(ctx, "edge")
	assert.ErrorIs(t, err, ErrInvitationExpired)
	_, err = f.svc.Validate(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvitationNotFound)
	_, err = f.svc.Validate(ctx, " ")
	assert.ErrorIs(t, err, ErrCodeRequired)
}

func TestRevoke_RemovesInvitationAndNotifications(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	invitee := domain.User{Fullname: "Ian", Email: "ian@test.com", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&invitee).Error)
	inv, err := f.svc.Create(ctx, f.owner, "ian@test.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, f.owner, "ian@test.com"))

	_, err = f.svc.Validate(ctx, inv.InviteCode)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
	var count int64
	f.db.Model(&domain.Notification{}).Count(&count)
	assert.Zero(t, count)

	assert.ErrorIs(t, f.svc.Revoke(ctx, f.owner, "ian@test.com"), ErrPendingNotFound)
}

func TestList_OwnerOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.owner, "a@test.com")
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	member := f.owner
	member.IsTeamOwner = false
	_, err = f.svc.List(ctx, member)
	assert.ErrorIs(t, err, access.ErrPermissionDenied)
}

func TestPurgeExpired(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	code := "old"
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: code, TeamID: f.team.TeamID, Email: "a@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now.Add(-time.Hour)}).Error)
	require.NoError(t, f.db.Create(&domain.Invitation{InviteCode: "new", TeamID: f.team.TeamID, Email: "b@test.com", InvitedBy: f.owner.UserID, ExpiresAt: f.now.Add(time.Hour)}).Error)
	require.NoError(t, f.db.Create(&domain.Notification{UserID: uuid.New(), Type: domain.NotificationTeamInvite, Message: "m", InviteCode: &code}).Error)

	n, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var notes int64
	f.db.Model(&domain.Notification{}).Count(&notes)
	assert.Zero(t, notes)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestCreate_RandomSourceFailure(t *testing.T) {
	f := setup(t)
	f.svc.Rand = failingReader{}

	_, err := f.svc.Create(context.Background(), f.owner, "new@test.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBackend, apperr.KindOf(err))

	var n int64
	require.NoError(t, f.db.Model(&domain.Invitation{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.sender.invites)
}

func TestCreate_CodeIsHexFromRandomSource(t *testing.T) {
	f := setup(t)
	f.svc.Rand = strings.NewReader(strings.Repeat("\xab", 32))

	inv, err := f.svc.Create(context.Background(), f.owner, "new@test.com")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), inv.InviteCode)
}
