// Package todos implements todo lists. A user keeps their own lists across team changes and
// also sees the lists of their current team.
package todos

import (
	"context"
	"errors"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrListNotFound    = apperr.New(apperr.KindNotFound, "Todo list not found")
	ErrTodoNotFound    = apperr.New(apperr.KindNotFound, "Todo not found")
	ErrNameRequired    = apperr.New(apperr.KindValidation, "name is required")
	ErrTitleRequired   = apperr.New(apperr.KindValidation, "title is required")
	ErrNothingToUpdate = apperr.New(apperr.KindValidation, "No valid update fields provided")
)

type Service struct {
	DB *gorm.DB
}

// TodoInput is the create body for a todo.
type TodoInput struct {
	Title   string     `json:"title" validate:"required,max=200"`
	DueDate *time.Time `json:"due_date"`
}

// TodoPatch lists editable todo fields.
type TodoPatch struct {
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Done         *bool      `json:"done"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// ListView is a list with its todos.
type ListView struct {
	domain.TodoList
	Items        []domain.TodoItem   `json:"items"`
	Capabilities access.Capabilities `json:"capabilities"`
}

// Visible scopes todo list queries to the caller's own lists plus their team's lists.
func Visible(id access.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id.TeamID != nil {
			return db.Where("owner_id = ? OR team_id = ?", id.UserID, *id.TeamID)
		}
		return db.Where("owner_id = ?", id.UserID)
	}
}

func decide(id access.Identity, l *domain.TodoList) access.Capabilities {
	if id.UserID != uuid.Nil && l.OwnerID == id.UserID {
		return access.Capabilities{View: true, Edit: true, Delete: true, Manage: true}
	}
	return access.Decide(id, access.Resource{OwnerID: l.OwnerID, TeamID: l.TeamID})
}

func (s *Service) loadList(ctx context.Context, id access.Identity, listID uuid.UUID) (*domain.TodoList, access.Capabilities, error) {
	var l domain.TodoList
	if err := s.DB.WithContext(ctx).Where("list_id = ?", listID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrListNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load todo list", err)
	}
	caps := decide(id, &l)
	if !caps.View {
		return nil, caps, ErrListNotFound
	}
	return &l, caps, nil
}

func (s *Service) loadTodo(ctx context.Context, id access.Identity, todoID uuid.UUID) (*domain.TodoItem, access.Capabilities, error) {
	var t domain.TodoItem
	if err := s.DB.WithContext(ctx).Where("todo_id = ?", todoID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrTodoNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load todo", err)
	}
	_, caps, err := s.loadList(ctx, id, t.ListID)
	if errors.Is(err, ErrListNotFound) {
		return nil, caps, ErrTodoNotFound
	}
	if err != nil {
		return nil, caps, err
	}
	return &t, caps, nil
}

// CreateList creates a list in the caller's namespace.
func (s *Service) CreateList(ctx context.Context, id access.Identity, name string) (*domain.TodoList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	ownerID, teamID := access.NewResourceOwnership(id)
	l := &domain.TodoList{Name: name, OwnerID: ownerID, TeamID: teamID}
	if err := s.DB.WithContext(ctx).Create(l).Error; err != nil {
		return nil, apperr.Backend("create todo list", err)
	}
	return l, nil
}

// ListLists returns every visible list with its todos, oldest list first.
func (s *Service) ListLists(ctx context.Context, id access.Identity) ([]ListView, error) {
	var lists []domain.TodoList
	if err := s.DB.WithContext(ctx).Scopes(Visible(id)).Order("created_at ASC").Find(&lists).Error; err != nil {
		return nil, apperr.Backend("list todo lists", err)
	}
	out := make([]ListView, 0, len(lists))
	if len(lists) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(lists))
	for i, l := range lists {
		ids[i] = l.ListID
	}
	var items []domain.TodoItem
	if err := s.DB.WithContext(ctx).Where("list_id IN ?", ids).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, apperr.Backend("list todos", err)
	}
	byList := make(map[uuid.UUID][]domain.TodoItem, len(lists))
	for _, it := range items {
		byList[it.ListID] = append(byList[it.ListID], it)
	}
	for i := range lists {
		its := byList[lists[i].ListID]
		if its == nil {
			its = []domain.TodoItem{}
		}
		out = append(out, ListView{TodoList: lists[i], Items: its, Capabilities: decide(id, &lists[i])})
	}
	return out, nil
}

// DeleteList removes a list and its todos.
func (s *Service) DeleteList(ctx context.Context, id access.Identity, listID uuid.UUID) error {
	l, caps, err := s.loadList(ctx, id, listID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Delete); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", l.ListID).Delete(&domain.TodoItem{}).Error; err != nil {
			return apperr.Backend("delete todos", err)
		}
		if err := tx.Delete(l).Error; err != nil {
			return apperr.Backend("delete todo list", err)
		}
		return nil
	})
}

// AddTodo adds a todo to a list.
func (s *Service) AddTodo(ctx context.Context, id access.Identity, listID uuid.UUID, in TodoInput) (*domain.TodoItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	l, caps, err := s.loadList(ctx, id, listID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	t := &domain.TodoItem{ListID: l.ListID, Title: title, DueDate: in.DueDate}
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return nil, apperr.Backend("create todo", err)
	}
	return t, nil
}

// ToggleTodo flips the done flag.
func (s *Service) ToggleTodo(ctx context.Context, id access.Identity, todoID uuid.UUID) (*domain.TodoItem, error) {
	t, caps, err := s.loadTodo(ctx, id, todoID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	done := !t.Done
	if err := s.DB.WithContext(ctx).Model(t).Update("done", done).Error; err != nil {
		return nil, apperr.Backend("toggle todo", err)
	}
	t.Done = done
	return t, nil
}

// UpdateTodo edits a todo.
func (s *Service) UpdateTodo(ctx context.Context, id access.Identity, todoID uuid.UUID, in TodoPatch) (*domain.TodoItem, error) {
	t, caps, err := s.loadTodo(ctx, id, todoID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	upd := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		upd["title"] = title
	}
	if in.Done != nil {
		upd["done"] = *in.Done
	}
	switch {
	case in.ClearDueDate:
		upd["due_date"] = nil
	case in.DueDate != nil:
		upd["due_date"] = *in.DueDate
	}
	if len(upd) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.DB.WithContext(ctx).Model(t).Updates(upd).Error; err != nil {
		return nil, apperr.Backend("update todo", err)
	}
	if err := s.DB.WithContext(ctx).Where("todo_id = ?", t.TodoID).First(t).Error; err != nil {
		return nil, apperr.Backend("reload todo", err)
	}
	return t, nil
}

// DeleteTodo removes a todo.
func (s *Service) DeleteTodo(ctx context.Context, id access.Identity, todoID uuid.UUID) error {
	t, caps, err := s.loadTodo(ctx, id, todoID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Edit); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(t).Error; err != nil {
		return apperr.Backend("delete todo", err)
	}
	return nil
}
