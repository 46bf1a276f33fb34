package notifications

import (
	notesvc "swifttasks-backend/internal/application/notifications"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *notesvc.Service
}

// ViewNotifications GET /api/v1/notifications/view-notifications?unread_only=true
func (h *Handlers) ViewNotifications(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	list, err := h.Service.List(c.Context(), id, c.QueryBool("unread_only", false))
	if err != nil {
		return response.Fail(c, err)
	}
	unread, err := h.Service.UnreadCount(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Notifications found", fiber.Map{"notifications": list}, fiber.Map{
		"count":  len(list),
		"unread": unread,
	})
}

// MarkRead PATCH /api/v1/notifications/mark-read/:notification_id
func (h *Handlers) MarkRead(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	noteID, ok, err := request.UUIDParam(c, "notification_id")
	if !ok {
		return err
	}
	if err := h.Service.MarkRead(c.Context(), id, noteID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Notification marked as read", nil, nil)
}

// MarkAllRead PATCH /api/v1/notifications/mark-all-read
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	n, err := h.Service.MarkAllRead(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Notifications marked as read", fiber.Map{"updated": n}, nil)
}

// DeleteNotification DELETE /api/v1/notifications/delete-notification/:notification_id
func (h *Handlers) DeleteNotification(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	noteID, ok, err := request.UUIDParam(c, "notification_id")
	if !ok {
		return err
	}
	if err := h.Service.Delete(c.Context(), id, noteID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Notification deleted", nil, nil)
}
