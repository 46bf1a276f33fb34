package auth

import (
	"context"
	"errors"
	"strings"

	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginInput for login request body.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	UserID      string  `json:"user_id"`
	Fullname    string  `json:"fullname"`
	Email       string  `json:"email"`
	AccountType string  `json:"account_type"`
	TeamID      *string `json:"team_id"`
	IsTeamOwner bool    `json:"is_team_owner"`
}

// UserFinder abstracts user lookup by email+password (for production GORM or test doubles).
type UserFinder interface {
	FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error)
}

// GormUserFinder implements UserFinder using GORM and bcrypt.
type GormUserFinder struct{ DB *gorm.DB }

func (g *GormUserFinder) FindByEmailAndPassword(ctx context.Context, email, password string) (*domain.User, error) {
	return LoginUser(ctx, g.DB, LoginInput{Email: email, Password: password})
}

// LoginUser finds user by email and verifies password. Returns user for session or error.
func LoginUser(ctx context.Context, db *gorm.DB, input LoginInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, apperr.Backend("lookup user", err)
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

// VerifyUser validates session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return nil, ErrNotAuthenticated
	}
	out := &SessionUserShape{
		UserID:      userID,
		Fullname:    str(m["fullname"]),
		Email:       str(m["email"]),
		AccountType: str(m["account_type"]),
	}
	if out.AccountType == "" {
		out.AccountType = domain.AccountSingle
	}
	if t, ok := m["team_id"].(string); ok && t != "" {
		out.TeamID = &t
	}
	out.IsTeamOwner, _ = m["is_team_owner"].(bool)
	return out, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
