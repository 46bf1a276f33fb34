// Package calendar implements calendar events and the aggregated agenda view.
package calendar

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/todos"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound   = apperr.New(apperr.KindNotFound, "Event not found")
	ErrTitleRequired   = apperr.New(apperr.KindValidation, "title is required")
	ErrInvalidRange    = apperr.New(apperr.KindValidation, "end must not be before start")
	ErrNothingToUpdate = apperr.New(apperr.KindValidation, "No valid update fields provided")
	ErrWindowTooLarge  = apperr.New(apperr.KindValidation, "window must not exceed 366 days")
)

// MaxWindow bounds the range Entries will aggregate.
const MaxWindow = 366 * 24 * time.Hour

// Entry kinds.
const (
	KindEvent  = "event"
	KindTodo   = "todo"
	KindKanban = "kanban_item"
)

type Service struct {
	DB *gorm.DB
}

// EventInput is the create body for an event.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
}

// EventPatch lists editable event fields.
type EventPatch struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Entry is one row of the agenda. Todos and kanban items have no end.
type Entry struct {
	Kind     string     `json:"kind"`
	ID       uuid.UUID  `json:"id"`
	Title    string     `json:"title"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
	Done     bool       `json:"done,omitempty"`
	ParentID uuid.UUID  `json:"parent_id"`
}

func (s *Service) loadEvent(ctx context.Context, id access.Identity, eventID uuid.UUID) (*domain.CalendarEvent, access.Capabilities, error) {
	var ev domain.CalendarEvent
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrEventNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load event", err)
	}
	caps := access.Decide(id, access.Resource{OwnerID: ev.OwnerID, TeamID: ev.TeamID})
	if !caps.View {
		return nil, caps, ErrEventNotFound
	}
	return &ev, caps, nil
}

// CreateEvent adds an event to the caller's namespace.
func (s *Service) CreateEvent(ctx context.Context, id access.Identity, in EventInput) (*domain.CalendarEvent, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.EndsAt.Before(in.StartsAt) {
		return nil, ErrInvalidRange
	}
	ownerID, teamID := access.NewResourceOwnership(id)
	ev := &domain.CalendarEvent{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		StartsAt:    in.StartsAt.UTC(),
		EndsAt:      in.EndsAt.UTC(),
		OwnerID:     ownerID,
		TeamID:      teamID,
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, apperr.Backend("create event", err)
	}
	return ev, nil
}

// UpdateEvent edits an event; the resulting range must stay ordered.
func (s *Service) UpdateEvent(ctx context.Context, id access.Identity, eventID uuid.UUID, in EventPatch) (*domain.CalendarEvent, error) {
	ev, caps, err := s.loadEvent(ctx, id, eventID)
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
	if in.Description != nil {
		upd["description"] = strings.TrimSpace(*in.Description)
	}
	start, end := ev.StartsAt, ev.EndsAt
	if in.StartsAt != nil {
		start = in.StartsAt.UTC()
		upd["starts_at"] = start
	}
	if in.EndsAt != nil {
		end = in.EndsAt.UTC()
		upd["ends_at"] = end
	}
	if len(upd) == 0 {
		return nil, ErrNothingToUpdate
	}
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	if err := s.DB.WithContext(ctx).Model(ev).Updates(upd).Error; err != nil {
		return nil, apperr.Backend("update event", err)
	}
	if err := s.DB.WithContext(ctx).Where("event_id = ?", ev.EventID).First(ev).Error; err != nil {
		return nil, apperr.Backend("reload event", err)
	}
	return ev, nil
}

// DeleteEvent removes an event.
func (s *Service) DeleteEvent(ctx context.Context, id access.Identity, eventID uuid.UUID) error {
	ev, caps, err := s.loadEvent(ctx, id, eventID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Delete); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(ev).Error; err != nil {
		return apperr.Backend("delete event", err)
	}
	return nil
}

// Entries aggregates the caller's agenda for [from, to): events overlapping the window, todos
// due in it, and kanban items due in it, ordered by start time.
func (s *Service) Entries(ctx context.Context, id access.Identity, from, to time.Time) ([]Entry, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if to.Sub(from) > MaxWindow {
		return nil, ErrWindowTooLarge
	}
	from, to = from.UTC(), to.UTC()
	db := s.DB.WithContext(ctx)
	out := []Entry{}

	var events []domain.CalendarEvent
	if err := db.Scopes(access.Namespace(id, "")).
		Where("starts_at < ? AND ends_at >= ?", to, from).Find(&events).Error; err != nil {
		return nil, apperr.Backend("list events", err)
	}
	for _, ev := range events {
		end := ev.EndsAt
		out = append(out, Entry{Kind: KindEvent, ID: ev.EventID, Title: ev.Title, StartsAt: ev.StartsAt, EndsAt: &end})
	}

	var listIDs []uuid.UUID
	if err := db.Model(&domain.TodoList{}).Scopes(todos.Visible(id)).Pluck("list_id", &listIDs).Error; err != nil {
		return nil, apperr.Backend("list todo lists", err)
	}
	if len(listIDs) > 0 {
		var due []domain.TodoItem
		if err := db.Where("list_id IN ? AND due_date >= ? AND due_date < ?", listIDs, from, to).Find(&due).Error; err != nil {
			return nil, apperr.Backend("list todos", err)
		}
		for _, t := range due {
			out = append(out, Entry{Kind: KindTodo, ID: t.TodoID, Title: t.Title, StartsAt: *t.DueDate, Done: t.Done, ParentID: t.ListID})
		}
	}

	type dueItem struct {
		domain.Item
		BoardID uuid.UUID
	}
	var items []dueItem
	if err := db.Table("board_items").
		Select("board_items.*, board_columns.board_id AS board_id").
		Joins("JOIN board_columns ON board_columns.column_id = board_items.column_id").
		Joins("JOIN boards ON boards.board_id = board_columns.board_id").
		Joins("JOIN projects ON projects.project_id = boards.project_id").
		Scopes(access.Namespace(id, "projects")).
		Where("board_items.due_date >= ? AND board_items.due_date < ?", from, to).
		Scan(&items).Error; err != nil {
		return nil, apperr.Backend("list kanban items", err)
	}
	for _, it := range items {
		out = append(out, Entry{Kind: KindKanban, ID: it.ItemID, Title: it.Title, StartsAt: *it.DueDate, ParentID: it.BoardID})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].Title < out[j].Title
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}
