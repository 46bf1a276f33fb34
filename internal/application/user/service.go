package user

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/emails"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail     = apperr.New(apperr.KindValidation, "Invalid email format")
	ErrInvalidPassword  = apperr.New(apperr.KindValidation, "Password must be at least 8 characters and contain a letter, a number and a symbol")
	ErrFullnameRequired = apperr.New(apperr.KindValidation, "Full name is required and must be a non-empty string")
	ErrInvalidFullname  = apperr.New(apperr.KindValidation, "Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	ErrEmailTaken       = apperr.New(apperr.KindConflict, "Email already registered")
	ErrNoUpdateFields   = apperr.New(apperr.KindValidation, "No valid update fields provided")
	ErrUserNotFound     = apperr.New(apperr.KindNotFound, "User not found")
)

// Service holds DB and the mailer for profile operations.
type Service struct {
	DB    *gorm.DB
	Email emails.Sender
}

// CreateUserInput is the signup body.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Fullname string `json:"fullname" validate:"required"`
}

// CreateUser registers a single account. The welcome email is best-effort.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if !validation.IsValidEmail(strings.TrimSpace(in.Email)) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	fullname, err := cleanFullname(in.Fullname)
	if err != nil {
		return nil, err
	}
	email := validation.NormalizeEmail(in.Email)

	taken, err := s.emailTaken(ctx, email, nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, apperr.Backend("hash password", err)
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     fullname,
		AccountType:  domain.AccountSingle,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, apperr.Backend("create user", err)
	}
	if s.Email != nil {
		if err := s.Email.SendWelcome(ctx, u.Email, firstName(u.Fullname)); err != nil {
			log.Warn().Err(err).Str("user_id", u.UserID.String()).Msg("welcome email failed")
		}
	}
	return u, nil
}

// ViewUser returns the caller's profile.
func (s *Service) ViewUser(ctx context.Context, id access.Identity) (*domain.User, error) {
	if id.UserID == uuid.Nil {
		return nil, access.ErrAuthenticationRequired
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", id.UserID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Backend("view user", err)
	}
	return &u, nil
}

// UpdateUserInput lists the editable profile fields; nil means unchanged.
type UpdateUserInput struct {
	Fullname *string `json:"fullname"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUser changes the caller's own profile.
func (s *Service) UpdateUser(ctx context.Context, id access.Identity, in UpdateUserInput) (*domain.User, error) {
	upd := make(map[string]interface{})
	if in.Fullname != nil {
		fullname, err := cleanFullname(*in.Fullname)
		if err != nil {
			return nil, err
		}
		upd["fullname"] = fullname
	}
	if in.Email != nil {
		if !validation.IsValidEmail(strings.TrimSpace(*in.Email)) {
			return nil, ErrInvalidEmail
		}
		email := validation.NormalizeEmail(*in.Email)
		taken, err := s.emailTaken(ctx, email, &id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		upd["email"] = email
	}
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), 10)
		if err != nil {
			return nil, apperr.Backend("hash password", err)
		}
		upd["password_hash"] = string(hash)
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}

	result := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", id.UserID).Updates(upd)
	if result.Error != nil {
		return nil, apperr.Backend("update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.ViewUser(ctx, id)
}

func (s *Service) emailTaken(ctx context.Context, email string, except *access.Identity) (bool, error) {
	q := s.DB.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email)
	if except != nil {
		q = q.Where("user_id != ?", except.UserID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, apperr.Backend("check email", err)
	}
	return n > 0, nil
}

func cleanFullname(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrFullnameRequired
	}
	if !validation.IsValidFullname(trimmed) {
		return "", ErrInvalidFullname
	}
	return titleCaseAndNormalize(trimmed), nil
}

func firstName(fullname string) string {
	if i := strings.IndexByte(fullname, ' '); i > 0 {
		return fullname[:i]
	}
	return fullname
}

func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
