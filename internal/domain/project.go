package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is personal when TeamID is nil, team-scoped otherwise.
type Project struct {
	ProjectID   uuid.UUID  `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	Description string     `gorm:"column:description" json:"description"`
	OwnerID     uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	TeamID      *uuid.UUID `gorm:"column:team_id;type:uuid;index" json:"team_id"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}

// Board is a kanban board inside a project.
type Board struct {
	BoardID   uuid.UUID `gorm:"column:board_id;type:uuid;primaryKey" json:"board_id"`
	ProjectID uuid.UUID `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Board) TableName() string {
	return "boards"
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.BoardID == uuid.Nil {
		b.BoardID = uuid.New()
	}
	return nil
}

// Column is an ordered lane of a board.
type Column struct {
	ColumnID  uuid.UUID `gorm:"column:column_id;type:uuid;primaryKey" json:"column_id"`
	BoardID   uuid.UUID `gorm:"column:board_id;type:uuid;not null;index" json:"board_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Column) TableName() string {
	return "board_columns"
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ColumnID == uuid.Nil {
		c.ColumnID = uuid.New()
	}
	return nil
}

// Item is a task card within a column.
type Item struct {
	ItemID      uuid.UUID  `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	ColumnID    uuid.UUID  `gorm:"column:column_id;type:uuid;not null;index" json:"column_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	Position    int        `gorm:"column:position;not null;default:0" json:"position"`
	DueDate     *time.Time `gorm:"column:due_date;index" json:"due_date"`
	AssigneeID  *uuid.UUID `gorm:"column:assignee_id;type:uuid" json:"assignee_id"`
	CreatedBy   uuid.UUID  `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Item) TableName() string {
	return "board_items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ItemID == uuid.Nil {
		i.ItemID = uuid.New()
	}
	return nil
}
