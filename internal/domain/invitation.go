package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invitation is a pending team invite. The row is deleted when it is consumed or revoked.
type Invitation struct {
	InviteID   uuid.UUID `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	InviteCode string    `gorm:"column:invite_code;not null;uniqueIndex" json:"invite_code"`
	TeamID     uuid.UUID `gorm:"column:team_id;type:uuid;not null;index" json:"team_id"`
	Email      string    `gorm:"column:email;not null;index" json:"email"`
	InvitedBy  uuid.UUID `gorm:"column:invited_by;type:uuid;not null" json:"invited_by"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Invitation) TableName() string {
	return "team_invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}

// Expired reports whether the invitation is no longer usable at now.
func (i *Invitation) Expired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
