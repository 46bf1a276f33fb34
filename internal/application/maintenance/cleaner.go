// Package maintenance runs periodic cleanup of expired invitations and old notifications.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/notifications"
	"swifttasks-backend/internal/monitoring"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultInviteSpec         = "@hourly"
	defaultNotificationSpec   = "@daily"
	defaultNotificationMaxAge = 30 * 24 * time.Hour

	JobInvitations   = "expired_invitations"
	JobNotifications = "read_notifications"
)

// Cleaner schedules the cleanup jobs on a cron.
type Cleaner struct {
	db          *gorm.DB
	invitations *invitations.Service
	metrics     *monitoring.Metrics
	cron        *cron.Cron
	now         func() time.Time
	maxAge      time.Duration

	inviteSpec       string
	notificationSpec string
}

type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(cl *Cleaner) {
		if c != nil {
			cl.cron = c
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(cl *Cleaner) {
		if now != nil {
			cl.now = now
		}
	}
}

// WithNotificationMaxAge sets how long read notifications are kept.
func WithNotificationMaxAge(d time.Duration) Option {
	return func(cl *Cleaner) {
		if d > 0 {
			cl.maxAge = d
		}
	}
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(cl *Cleaner) { cl.metrics = m }
}

// WithSchedules overrides the cron specs; empty keeps the default.
func WithSchedules(invites, notifications string) Option {
	return func(cl *Cleaner) {
		if invites != "" {
			cl.inviteSpec = invites
		}
		if notifications != "" {
			cl.notificationSpec = notifications
		}
	}
}

// NewCleaner builds a Cleaner. A nil invitations service skips the invitation job.
func NewCleaner(db *gorm.DB, inv *invitations.Service, opts ...Option) *Cleaner {
	cl := &Cleaner{
		db:               db,
		invitations:      inv,
		now:              time.Now,
		maxAge:           defaultNotificationMaxAge,
		inviteSpec:       defaultInviteSpec,
		notificationSpec: defaultNotificationSpec,
	}
	for _, opt := range opts {
		opt(cl)
	}
	if cl.cron == nil {
		cl.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cl
}

// Start registers the jobs and starts the scheduler.
func (c *Cleaner) Start() error {
	if c.invitations != nil {
		if _, err := c.cron.AddFunc(c.inviteSpec, func() {
			_ = c.purgeInvitations(context.Background())
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", JobInvitations, err)
		}
	}
	if c.db != nil {
		if _, err := c.cron.AddFunc(c.notificationSpec, func() {
			_ = c.purgeNotifications(context.Background())
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", JobNotifications, err)
		}
	}
	c.cron.Start()
	log.Info().Str("invites", c.inviteSpec).Str("notifications", c.notificationSpec).Msg("maintenance scheduler started")
	return nil
}

// Stop halts the scheduler; the returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	return c.cron.Stop()
}

// RunOnce runs every job sequentially and returns all failures combined.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error
	if c.invitations != nil {
		errs = multierr.Append(errs, c.purgeInvitations(ctx))
	}
	if c.db != nil {
		errs = multierr.Append(errs, c.purgeNotifications(ctx))
	}
	return errs
}

func (c *Cleaner) purgeInvitations(ctx context.Context) error {
	n, err := c.invitations.PurgeExpired(ctx)
	c.record(JobInvitations, n, err)
	if err != nil {
		return fmt.Errorf("%s: %w", JobInvitations, err)
	}
	return nil
}

func (c *Cleaner) purgeNotifications(ctx context.Context) error {
	n, err := notifications.PurgeRead(ctx, c.db, c.now().Add(-c.maxAge))
	c.record(JobNotifications, n, err)
	if err != nil {
		return fmt.Errorf("%s: %w", JobNotifications, err)
	}
	return nil
}

func (c *Cleaner) record(job string, n int64, err error) {
	c.metrics.RecordMaintenance(job, err)
	if err != nil {
		log.Warn().Err(err).Str("job", job).Msg("maintenance job failed")
		return
	}
	log.Info().Str("job", job).Int64("removed", n).Msg("maintenance job finished")
}
