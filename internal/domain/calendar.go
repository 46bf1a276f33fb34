package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CalendarEvent struct {
	EventID     uuid.UUID  `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	StartsAt    time.Time  `gorm:"column:starts_at;not null;index" json:"starts_at"`
	EndsAt      time.Time  `gorm:"column:ends_at;not null" json:"ends_at"`
	OwnerID     uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	TeamID      *uuid.UUID `gorm:"column:team_id;type:uuid;index" json:"team_id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

func (e *CalendarEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
