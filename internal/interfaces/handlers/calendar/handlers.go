package calendar

import (
	"time"

	calsvc "swifttasks-backend/internal/application/calendar"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var ErrInvalidWindow = apperr.New(apperr.KindValidation, "from and to must be RFC 3339 timestamps or YYYY-MM-DD dates")

type Handlers struct {
	Service *calsvc.Service
}

// parseBound accepts a full timestamp or a bare date (UTC midnight).
func parseBound(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CreateEvent POST /api/v1/calendar/create-event
func (h *Handlers) CreateEvent(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var in calsvc.EventInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	ev, err := h.Service.CreateEvent(c.Context(), id, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Event created", ev, nil)
}

// UpdateEvent PATCH /api/v1/calendar/update-event/:event_id
func (h *Handlers) UpdateEvent(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	eventID, ok, err := request.UUIDParam(c, "event_id")
	if !ok {
		return err
	}
	var in calsvc.EventPatch
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	ev, err := h.Service.UpdateEvent(c.Context(), id, eventID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Event updated", ev, nil)
}

// DeleteEvent DELETE /api/v1/calendar/delete-event/:event_id
func (h *Handlers) DeleteEvent(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	eventID, ok, err := request.UUIDParam(c, "event_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteEvent(c.Context(), id, eventID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Event deleted", nil, nil)
}

// Entries GET /api/v1/calendar/entries?from=&to=
func (h *Handlers) Entries(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	from, okFrom := parseBound(c.Query("from"))
	to, okTo := parseBound(c.Query("to"))
	if !okFrom || !okTo {
		return response.Fail(c, ErrInvalidWindow)
	}
	entries, err := h.Service.Entries(c.Context(), id, from, to)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Entries found", fiber.Map{"entries": entries}, fiber.Map{
		"from":  from.UTC(),
		"to":    to.UTC(),
		"count": len(entries),
	})
}
