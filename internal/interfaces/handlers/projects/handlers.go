package projects

import (
	projectsvc "swifttasks-backend/internal/application/projects"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/projects: projects, boards, columns and items.
type Handlers struct {
	Service *projectsvc.Service
}

type NameRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateProject POST /api/v1/projects/create-project
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var in projectsvc.ProjectInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	p, err := h.Service.CreateProject(c.Context(), id, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Project created", p, nil)
}

// ViewProjects GET /api/v1/projects/view-projects
func (h *Handlers) ViewProjects(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	list, err := h.Service.ListProjects(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Projects found", fiber.Map{"projects": list}, fiber.Map{"count": len(list)})
}

// ViewProject GET /api/v1/projects/view-project/:project_id
func (h *Handlers) ViewProject(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	projectID, ok, err := request.UUIDParam(c, "project_id")
	if !ok {
		return err
	}
	detail, err := h.Service.GetProject(c.Context(), id, projectID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Project found", detail, nil)
}

// UpdateProject PATCH /api/v1/projects/update-project/:project_id
func (h *Handlers) UpdateProject(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	projectID, ok, err := request.UUIDParam(c, "project_id")
	if !ok {
		return err
	}
	var in projectsvc.ProjectPatch
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	p, err := h.Service.UpdateProject(c.Context(), id, projectID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Project updated", p, nil)
}

// DeleteProject DELETE /api/v1/projects/delete-project/:project_id
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	projectID, ok, err := request.UUIDParam(c, "project_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteProject(c.Context(), id, projectID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Project deleted", nil, nil)
}

// CreateBoard POST /api/v1/projects/create-board/:project_id
func (h *Handlers) CreateBoard(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	projectID, ok, err := request.UUIDParam(c, "project_id")
	if !ok {
		return err
	}
	var req NameRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	board, err := h.Service.CreateBoard(c.Context(), id, projectID, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Board created", board, nil)
}

// ViewBoard GET /api/v1/projects/view-board/:board_id
func (h *Handlers) ViewBoard(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	boardID, ok, err := request.UUIDParam(c, "board_id")
	if !ok {
		return err
	}
	board, err := h.Service.GetBoard(c.Context(), id, boardID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Board found", board, nil)
}

// RenameBoard PATCH /api/v1/projects/rename-board/:board_id
func (h *Handlers) RenameBoard(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	boardID, ok, err := request.UUIDParam(c, "board_id")
	if !ok {
		return err
	}
	var req NameRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	board, err := h.Service.RenameBoard(c.Context(), id, boardID, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Board renamed", board, nil)
}

// DeleteBoard DELETE /api/v1/projects/delete-board/:board_id
func (h *Handlers) DeleteBoard(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	boardID, ok, err := request.UUIDParam(c, "board_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteBoard(c.Context(), id, boardID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Board deleted", nil, nil)
}

// CreateColumn POST /api/v1/projects/create-column/:board_id
func (h *Handlers) CreateColumn(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	boardID, ok, err := request.UUIDParam(c, "board_id")
	if !ok {
		return err
	}
	var req NameRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	col, err := h.Service.CreateColumn(c.Context(), id, boardID, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Column created", col, nil)
}

// RenameColumn PATCH /api/v1/projects/rename-column/:column_id
func (h *Handlers) RenameColumn(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	columnID, ok, err := request.UUIDParam(c, "column_id")
	if !ok {
		return err
	}
	var req NameRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	col, err := h.Service.RenameColumn(c.Context(), id, columnID, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Column renamed", col, nil)
}

// DeleteColumn DELETE /api/v1/projects/delete-column/:column_id
func (h *Handlers) DeleteColumn(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	columnID, ok, err := request.UUIDParam(c, "column_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteColumn(c.Context(), id, columnID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Column deleted", nil, nil)
}

// CreateItem POST /api/v1/projects/create-item/:column_id
func (h *Handlers) CreateItem(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	columnID, ok, err := request.UUIDParam(c, "column_id")
	if !ok {
		return err
	}
	var in projectsvc.ItemInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	item, err := h.Service.CreateItem(c.Context(), id, columnID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Item created", item, nil)
}

// UpdateItem PATCH /api/v1/projects/update-item/:item_id
func (h *Handlers) UpdateItem(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	itemID, ok, err := request.UUIDParam(c, "item_id")
	if !ok {
		return err
	}
	var in projectsvc.ItemPatch
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	item, err := h.Service.UpdateItem(c.Context(), id, itemID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Item updated", item, nil)
}

// MoveItem PUT /api/v1/projects/move-item/:item_id
func (h *Handlers) MoveItem(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	itemID, ok, err := request.UUIDParam(c, "item_id")
	if !ok {
		return err
	}
	var in projectsvc.MoveInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	item, err := h.Service.MoveItem(c.Context(), id, itemID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Item moved", item, nil)
}

// DeleteItem DELETE /api/v1/projects/delete-item/:item_id
func (h *Handlers) DeleteItem(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	itemID, ok, err := request.UUIDParam(c, "item_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteItem(c.Context(), id, itemID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Item deleted", nil, nil)
}
