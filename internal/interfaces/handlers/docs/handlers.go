package docs

import (
	docsvc "swifttasks-backend/internal/application/docs"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/docs.
type Handlers struct {
	Service *docsvc.Service
}

type SpaceRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateSpace POST /api/v1/docs/create-space
func (h *Handlers) CreateSpace(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req SpaceRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	space, err := h.Service.CreateSpace(c.Context(), id, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Space created", space, nil)
}

// ViewSpaces GET /api/v1/docs/view-spaces
func (h *Handlers) ViewSpaces(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	spaces, err := h.Service.ListSpaces(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Spaces found", fiber.Map{"spaces": spaces}, fiber.Map{"count": len(spaces)})
}

// ViewSpace GET /api/v1/docs/view-space/:space_id
func (h *Handlers) ViewSpace(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	spaceID, ok, err := request.UUIDParam(c, "space_id")
	if !ok {
		return err
	}
	view, err := h.Service.GetSpace(c.Context(), id, spaceID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Space found", view, nil)
}

// RenameSpace PATCH /api/v1/docs/rename-space/:space_id
func (h *Handlers) RenameSpace(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	spaceID, ok, err := request.UUIDParam(c, "space_id")
	if !ok {
		return err
	}
	var req SpaceRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	space, err := h.Service.RenameSpace(c.Context(), id, spaceID, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Space renamed", space, nil)
}

// DeleteSpace DELETE /api/v1/docs/delete-space/:space_id
func (h *Handlers) DeleteSpace(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	spaceID, ok, err := request.UUIDParam(c, "space_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteSpace(c.Context(), id, spaceID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Space deleted", nil, nil)
}

// CreatePage POST /api/v1/docs/create-page/:space_id
func (h *Handlers) CreatePage(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	spaceID, ok, err := request.UUIDParam(c, "space_id")
	if !ok {
		return err
	}
	var in docsvc.PageInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	page, err := h.Service.CreatePage(c.Context(), id, spaceID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Page created", page, nil)
}

// ViewPage GET /api/v1/docs/view-page/:page_id. Includes the board preview when visible.
func (h *Handlers) ViewPage(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	pageID, ok, err := request.UUIDParam(c, "page_id")
	if !ok {
		return err
	}
	view, err := h.Service.GetPage(c.Context(), id, pageID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Page found", view, nil)
}

// UpdatePage PATCH /api/v1/docs/update-page/:page_id
func (h *Handlers) UpdatePage(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	pageID, ok, err := request.UUIDParam(c, "page_id")
	if !ok {
		return err
	}
	var in docsvc.PagePatch
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	page, err := h.Service.UpdatePage(c.Context(), id, pageID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Page updated", page, nil)
}

// DeletePage DELETE /api/v1/docs/delete-page/:page_id
func (h *Handlers) DeletePage(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	pageID, ok, err := request.UUIDParam(c, "page_id")
	if !ok {
		return err
	}
	if err := h.Service.DeletePage(c.Context(), id, pageID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Page deleted", nil, nil)
}
