package response

import (
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const statusSuccess = "success"
const statusError = "error"

// Success sends a 200 OK response with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusOK).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// SuccessCreated sends a 201 Created response with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return c.Status(fiber.StatusCreated).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends a response with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Unauthorized sends 401 with the same shape as other errors.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}

// Fail converts a service error into the error envelope. Backend causes are logged and
// replaced by a generic message.
func Fail(c *fiber.Ctx, err error) error {
	return FailWithDetails(c, err, nil)
}

// FailWithDetails is Fail with extra details merged under error.details.
func FailWithDetails(c *fiber.Ctx, err error, details map[string]interface{}) error {
	kind := apperr.KindOf(err)
	if details == nil {
		details = map[string]interface{}{}
	}
	details["code"] = kind.String()
	if kind == apperr.KindBackend {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("request failed")
	}
	return Error(c, apperr.MessageOf(err), StatusFor(kind), details)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindAuthenticationRequired:
		return fiber.StatusUnauthorized
	case apperr.KindInvalidInvitation, apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInvitationExpired:
		return fiber.StatusGone
	case apperr.KindEmailMismatch, apperr.KindPermissionDenied, apperr.KindLimitReached:
		return fiber.StatusForbidden
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
