// Package request holds the body, identity and path parameter helpers shared by handlers.
// Each helper writes the error response itself; callers return when ok is false.
package request

import (
	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/middleware"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/response"
	"swifttasks-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	ErrInvalidBody = apperr.New(apperr.KindValidation, "Invalid request body")
	ErrInvalidID   = apperr.New(apperr.KindValidation, "Invalid id")
)

// Bind parses the JSON body into dst and runs its validate tags.
func Bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, response.Fail(c, ErrInvalidBody)
	}
	fields, err := validation.ValidateStruct(dst)
	if err != nil {
		return false, response.FailWithDetails(c, err, map[string]interface{}{"fields": fields})
	}
	return true, nil
}

// Identity returns the caller or writes 401.
func Identity(c *fiber.Ctx) (access.Identity, bool, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return id, false, response.Fail(c, access.ErrAuthenticationRequired)
	}
	return id, true, nil
}

// UUIDParam parses the named route parameter or writes 400.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool, error) {
	v, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false, response.Fail(c, ErrInvalidID)
	}
	return v, true, nil
}
