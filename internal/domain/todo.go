package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TodoList belongs to its owner. Lists survive a team join.
type TodoList struct {
	ListID    uuid.UUID  `gorm:"column:list_id;type:uuid;primaryKey" json:"list_id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	OwnerID   uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	TeamID    *uuid.UUID `gorm:"column:team_id;type:uuid;index" json:"team_id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (TodoList) TableName() string {
	return "todo_lists"
}

func (l *TodoList) BeforeCreate(tx *gorm.DB) error {
	if l.ListID == uuid.Nil {
		l.ListID = uuid.New()
	}
	return nil
}

type TodoItem struct {
	TodoID    uuid.UUID  `gorm:"column:todo_id;type:uuid;primaryKey" json:"todo_id"`
	ListID    uuid.UUID  `gorm:"column:list_id;type:uuid;not null;index" json:"list_id"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Done      bool       `gorm:"column:done;not null;default:false" json:"done"`
	DueDate   *time.Time `gorm:"column:due_date;index" json:"due_date"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (TodoItem) TableName() string {
	return "todo_items"
}

func (t *TodoItem) BeforeCreate(tx *gorm.DB) error {
	if t.TodoID == uuid.Nil {
		t.TodoID = uuid.New()
	}
	return nil
}
