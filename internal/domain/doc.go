package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocSpace is a documentation space; personal when TeamID is nil.
type DocSpace struct {
	SpaceID   uuid.UUID  `gorm:"column:space_id;type:uuid;primaryKey" json:"space_id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	TeamID    *uuid.UUID `gorm:"column:team_id;type:uuid;index" json:"team_id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (DocSpace) TableName() string {
	return "doc_spaces"
}

func (s *DocSpace) BeforeCreate(tx *gorm.DB) error {
	if s.SpaceID == uuid.Nil {
		s.SpaceID = uuid.New()
	}
	return nil
}

// DocPage holds sanitized HTML content. EmbeddedBoardID points at a board rendered as a
// read-only kanban preview.
type DocPage struct {
	PageID          uuid.UUID  `gorm:"column:page_id;type:uuid;primaryKey" json:"page_id"`
	SpaceID         uuid.UUID  `gorm:"column:space_id;type:uuid;not null;index" json:"space_id"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Content         string     `gorm:"column:content;type:text" json:"content"`
	Position        int        `gorm:"column:position;not null;default:0" json:"position"`
	EmbeddedBoardID *uuid.UUID `gorm:"column:embedded_board_id;type:uuid" json:"embedded_board_id"`
	CreatedBy       uuid.UUID  `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (DocPage) TableName() string {
	return "doc_pages"
}

func (p *DocPage) BeforeCreate(tx *gorm.DB) error {
	if p.PageID == uuid.Nil {
		p.PageID = uuid.New()
	}
	return nil
}
