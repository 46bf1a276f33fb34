package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account types stored in profiles.account_type.
const (
	AccountSingle     = "single"
	AccountTeamMember = "team_member"
)

// User is a profile row. A user belongs to at most one team; TeamID is nil for single accounts.
type User struct {
	UserID       uuid.UUID  `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Fullname     string     `gorm:"column:fullname;not null" json:"fullname"`
	Email        string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	AccountType  string     `gorm:"column:account_type;type:varchar(20);not null;default:single" json:"account_type"`
	TeamID       *uuid.UUID `gorm:"column:team_id;type:uuid;index" json:"team_id"`
	IsTeamOwner  bool       `gorm:"column:is_team_owner;not null;default:false" json:"is_team_owner"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (User) TableName() string {
	return "profiles"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	if u.AccountType == "" {
		u.AccountType = AccountSingle
	}
	return nil
}
