package middleware

import (
	"errors"

	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, map[string]interface{}{})
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return response.Fail(c, err)
	}
	return response.Fail(c, apperr.Backend("unhandled", err))
}
