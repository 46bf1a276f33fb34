package notifications

import (
	"context"
	"encoding/json"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = apperr.New(apperr.KindNotFound, "Notification not found")

// Service stores notifications and publishes them after they are written.
type Service struct {
	DB        *gorm.DB
	Publisher Publisher
}

// NewNotification is the input for Notify.
type NewNotification struct {
	UserID     uuid.UUID
	Type       string
	Message    string
	InviteCode *string
	Payload    map[string]interface{}
}

// Notify inserts a notification with db (pass a transaction to join it) and publishes it.
// Publish failures are logged only.
func (s *Service) Notify(ctx context.Context, db *gorm.DB, in NewNotification) (*domain.Notification, error) {
	if db == nil {
		db = s.DB
	}
	n := &domain.Notification{
		UserID:     in.UserID,
		Type:       in.Type,
		Message:    in.Message,
		InviteCode: in.InviteCode,
	}
	if in.Payload != nil {
		b, err := json.Marshal(in.Payload)
		if err != nil {
			return nil, apperr.Backend("encode notification payload", err)
		}
		n.Payload = datatypes.JSON(b)
	}
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, apperr.Backend("create notification", err)
	}
	s.publish(ctx, n)
	return n, nil
}

func (s *Service) publish(ctx context.Context, n *domain.Notification) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.Publish(ctx, n); err != nil {
		log.Warn().Err(err).Str("user_id", n.UserID.String()).Str("type", n.Type).Msg("notification publish failed")
	}
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, id access.Identity, unreadOnly bool) ([]domain.Notification, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", id.UserID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var out []domain.Notification
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, apperr.Backend("list notifications", err)
	}
	return out, nil
}

// UnreadCount returns how many unread notifications the caller has.
func (s *Service) UnreadCount(ctx context.Context, id access.Identity) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", id.UserID, false).Count(&n).Error; err != nil {
		return 0, apperr.Backend("count notifications", err)
	}
	return n, nil
}

// MarkRead marks one of the caller's notifications read.
func (s *Service) MarkRead(ctx context.Context, id access.Identity, notificationID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, id.UserID).
		Update("read", true)
	if res.Error != nil {
		return apperr.Backend("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of the caller read and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, id access.Identity) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", id.UserID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, apperr.Backend("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes one of the caller's notifications.
func (s *Service) Delete(ctx context.Context, id access.Identity, notificationID uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, id.UserID).
		Delete(&domain.Notification{})
	if res.Error != nil {
		return apperr.Backend("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteByInviteCode removes notifications that reference an invitation code.
func DeleteByInviteCode(ctx context.Context, db *gorm.DB, codes ...string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Where("invite_code IN ?", codes).Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}

// PurgeRead removes read notifications created before cutoff.
func PurgeRead(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("read = ? AND created_at < ?", true, cutoff).Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}
