package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types.
const (
	NotificationTeamInvite    = "team_invite"
	NotificationMemberJoined  = "member_joined"
	NotificationMemberRemoved = "member_removed"
)

// Notification is addressed to one user. InviteCode is set for team_invite notifications so
// they can be cleared when the invitation is consumed or revoked.
type Notification struct {
	NotificationID uuid.UUID      `gorm:"column:notification_id;type:uuid;primaryKey" json:"notification_id"`
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type           string         `gorm:"column:type;type:varchar(40);not null" json:"type"`
	Message        string         `gorm:"column:message;not null" json:"message"`
	InviteCode     *string        `gorm:"column:invite_code;index" json:"invite_code,omitempty"`
	Payload        datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	Read           bool           `gorm:"column:read;not null;default:false" json:"read"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.NotificationID == uuid.Nil {
		n.NotificationID = uuid.New()
	}
	return nil
}
