package auth

import "swifttasks-backend/internal/pkg/apperr"

var (
	ErrEmailPasswordRequired = apperr.New(apperr.KindValidation, "Email and password are required")
	ErrInvalidEmail          = apperr.New(apperr.KindAuthenticationRequired, "Invalid Email")
	ErrIncorrectPassword     = apperr.New(apperr.KindAuthenticationRequired, "Incorrect Password")
	ErrNotAuthenticated      = apperr.New(apperr.KindAuthenticationRequired, "Not authenticated")
)
