package todos

import (
	todosvc "swifttasks-backend/internal/application/todos"
	"swifttasks-backend/internal/interfaces/handlers/request"
	"swifttasks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *todosvc.Service
}

type ListRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateList POST /api/v1/todos/create-list
func (h *Handlers) CreateList(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	var req ListRequest
	if ok, err := request.Bind(c, &req); !ok {
		return err
	}
	list, err := h.Service.CreateList(c.Context(), id, req.Name)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "List created", list, nil)
}

// ViewLists GET /api/v1/todos/view-lists
func (h *Handlers) ViewLists(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	lists, err := h.Service.ListLists(c.Context(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Lists found", fiber.Map{"lists": lists}, fiber.Map{"count": len(lists)})
}

// DeleteList DELETE /api/v1/todos/delete-list/:list_id
func (h *Handlers) DeleteList(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	listID, ok, err := request.UUIDParam(c, "list_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteList(c.Context(), id, listID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "List deleted", nil, nil)
}

// AddTodo POST /api/v1/todos/add-todo/:list_id
func (h *Handlers) AddTodo(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	listID, ok, err := request.UUIDParam(c, "list_id")
	if !ok {
		return err
	}
	var in todosvc.TodoInput
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	todo, err := h.Service.AddTodo(c.Context(), id, listID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.SuccessCreated(c, "Todo added", todo, nil)
}

// ToggleTodo PATCH /api/v1/todos/toggle-todo/:todo_id
func (h *Handlers) ToggleTodo(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	todoID, ok, err := request.UUIDParam(c, "todo_id")
	if !ok {
		return err
	}
	todo, err := h.Service.ToggleTodo(c.Context(), id, todoID)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Todo updated", todo, nil)
}

// UpdateTodo PATCH /api/v1/todos/update-todo/:todo_id
func (h *Handlers) UpdateTodo(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	todoID, ok, err := request.UUIDParam(c, "todo_id")
	if !ok {
		return err
	}
	var in todosvc.TodoPatch
	if ok, err := request.Bind(c, &in); !ok {
		return err
	}
	todo, err := h.Service.UpdateTodo(c.Context(), id, todoID, in)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Todo updated", todo, nil)
}

// DeleteTodo DELETE /api/v1/todos/delete-todo/:todo_id
func (h *Handlers) DeleteTodo(c *fiber.Ctx) error {
	id, ok, err := request.Identity(c)
	if !ok {
		return err
	}
	todoID, ok, err := request.UUIDParam(c, "todo_id")
	if !ok {
		return err
	}
	if err := h.Service.DeleteTodo(c.Context(), id, todoID); err != nil {
		return response.Fail(c, err)
	}
	return response.Success(c, "Todo deleted", nil, nil)
}
