package maintenance

import (
	"context"
	"testing"
	"time"

	"swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/infrastructure/database"
	"swifttasks-backend/internal/monitoring"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

func setupCleaner(t *testing.T, now time.Time) (*Cleaner, *gorm.DB, *monitoring.Metrics) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	m, err := monitoring.New()
	require.NoError(t, err)
	clock := func() time.Time { return now }
	inv := &invitations.Service{DB: db, Metrics: m, Now: clock}
	return NewCleaner(db, inv, WithNow(clock), WithMetrics(m)), db, m
}

func TestRunOnce_PurgesExpiredInvitesAndOldReadNotifications(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cl, db, m := setupCleaner(t, now)
	owner := &domain.User{Fullname: "O", Email: "o@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(owner).Error)
	team := &domain.Team{Name: "T", OwnerID: owner.UserID}
	require.NoError(t, db.Create(team).Error)
	invitee := &domain.User{Fullname: "I", Email: "i@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(invitee).Error)

	require.NoError(t, db.Create(&domain.Invitation{InviteCode: "old", TeamID: team.TeamID, Email: "i@test.com", InvitedBy: owner.UserID, ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&domain.Invitation{InviteCode: "live", TeamID: team.TeamID, Email: "j@test.com", InvitedBy: owner.UserID, ExpiresAt: now.Add(time.Hour)}).Error)
	oldCode, liveCode := "old", "live"
	require.NoError(t, db.Create(&domain.Notification{UserID: invitee.UserID, Type: domain.NotificationTeamInvite, Message: "m", InviteCode: &oldCode}).Error)
	require.NoError(t, db.Create(&domain.Notification{UserID: invitee.UserID, Type: domain.NotificationTeamInvite, Message: "m", InviteCode: &liveCode}).Error)

	stale := &domain.Notification{UserID: invitee.UserID, Type: domain.NotificationMemberJoined, Message: "stale", Read: true}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Model(stale).UpdateColumn("created_at", now.Add(-40*24*time.Hour)).Error)
	unread := &domain.Notification{UserID: invitee.UserID, Type: domain.NotificationMemberJoined, Message: "unread"}
	require.NoError(t, db.Create(unread).Error)
	require.NoError(t, db.Model(unread).UpdateColumn("created_at", now.Add(-40*24*time.Hour)).Error)

	require.NoError(t, cl.RunOnce(context.Background()))

	var codes []string
	require.NoError(t, db.Model(&domain.Invitation{}).Pluck("invite_code", &codes).Error)
	assert.Equal(t, []string{"live"}, codes)

	var messages []string
	require.NoError(t, db.Model(&domain.Notification{}).Order("message").Pluck("message", &messages).Error)
	assert.Equal(t, []string{"m", "unread"}, messages)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Maintenance().WithLabelValues(JobInvitations, "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Maintenance().WithLabelValues(JobNotifications, "ok")))
}

func TestRunOnce_CombinesFailures(t *testing.T) {
	cl, db, _ := setupCleaner(t, time.Now())
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = cl.RunOnce(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

func TestStart_RegistersJobs(t *testing.T) {
	c := cron.New()
	cl, _, _ := setupCleaner(t, time.Now())
	WithCron(c)(cl)
	require.NoError(t, cl.Start())
	defer cl.Stop()
	assert.Len(t, c.Entries(), 2)

	bad := NewCleaner(nil, &invitations.Service{}, WithSchedules("not a spec", ""))
	assert.Error(t, bad.Start())
}
