package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team groups team_member profiles under one owner.
type Team struct {
	TeamID    uuid.UUID `gorm:"column:team_id;type:uuid;primaryKey" json:"team_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.TeamID == uuid.Nil {
		t.TeamID = uuid.New()
	}
	return nil
}
