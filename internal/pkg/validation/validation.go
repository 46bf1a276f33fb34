package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"swifttasks-backend/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Fullname: letters, spaces, hyphens, apostrophes only.
var fullnameRe = regexp.MustCompile(`^[A-Za-z\s\-']+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a letter, a digit and a symbol.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}

func IsValidFullname(fullname string) bool {
	return fullname != "" && fullnameRe.MatchString(fullname)
}

// NormalizeEmail lower-cases and trims an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	once     sync.Once
	validate *validator.Validate
)

// FieldError is a single failed struct rule, named by the json tag.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// ValidateStruct runs the struct's validate tags. On failure it returns an apperr validation
// error whose message names the first failing field, plus every failure for details.
func ValidateStruct(s interface{}) ([]FieldError, error) {
	err := getValidator().Struct(s)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "Invalid request body")
	}
	failures := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	first := failures[0]
	msg := first.Field + " is invalid"
	if first.Tag == "required" {
		msg = first.Field + " is required"
	}
	return failures, apperr.New(apperr.KindValidation, msg)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}
			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}
			if name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
