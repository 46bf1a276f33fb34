package projects

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

// ItemInput is the create body for a kanban item.
type ItemInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
}

// ItemPatch lists editable item fields; the Clear flags null a field out.
type ItemPatch struct {
	Title         *string    `json:"title" validate:"omitempty,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
	AssigneeID    *uuid.UUID `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
}

// MoveInput places an item at Position within ColumnID.
type MoveInput struct {
	ColumnID uuid.UUID `json:"column_id" validate:"required"`
	Position int       `json:"position" validate:"min=0"`
}

func (s *Service) loadColumn(ctx context.Context, db *gorm.DB, id access.Identity, columnID uuid.UUID) (*domain.Column, *domain.Project, access.Capabilities, error) {
	var col domain.Column
	if err := db.WithContext(ctx).Where("column_id = ?", columnID).First(&col).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, access.Capabilities{}, ErrColumnNotFound
		}
		return nil, nil, access.Capabilities{}, apperr.Backend("load column", err)
	}
	_, p, caps, err := s.loadBoard(ctx, db, id, col.BoardID)
	if err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return nil, nil, caps, ErrColumnNotFound
		}
		return nil, nil, caps, err
	}
	return &col, p, caps, nil
}

func (s *Service) loadItem(ctx context.Context, db *gorm.DB, id access.Identity, itemID uuid.UUID) (*domain.Item, *domain.Column, *domain.Project, access.Capabilities, error) {
	var it domain.Item
	if err := db.WithContext(ctx).Where("item_id = ?", itemID).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, access.Capabilities{}, ErrItemNotFound
		}
		return nil, nil, nil, access.Capabilities{}, apperr.Backend("load item", err)
	}
	col, p, caps, err := s.loadColumn(ctx, db, id, it.ColumnID)
	if err != nil {
		if errors.Is(err, ErrColumnNotFound) {
			return nil, nil, nil, caps, ErrItemNotFound
		}
		return nil, nil, nil, caps, err
	}
	return &it, col, p, caps, nil
}

// CreateColumn appends a column to a board.
func (s *Service) CreateColumn(ctx context.Context, id access.Identity, boardID uuid.UUID, name string) (*domain.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	b, _, caps, err := s.loadBoard(ctx, s.DB, id, boardID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Column{}).Where("board_id = ?", b.BoardID).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count columns", err)
	}
	col := &domain.Column{BoardID: b.BoardID, Name: name, Position: int(n)}
	if err := s.DB.WithContext(ctx).Create(col).Error; err != nil {
		return nil, apperr.Backend("create column", err)
	}
	return col, nil
}

// RenameColumn changes a column's name.
func (s *Service) RenameColumn(ctx context.Context, id access.Identity, columnID uuid.UUID, name string) (*domain.Column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	col, _, caps, err := s.loadColumn(ctx, s.DB, id, columnID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(col).Update("name", name).Error; err != nil {
		return nil, apperr.Backend("rename column", err)
	}
	col.Name = name
	return col, nil
}

// DeleteColumn removes a column and its items, then closes the gap in column positions.
func (s *Service) DeleteColumn(ctx context.Context, id access.Identity, columnID uuid.UUID) error {
	col, _, caps, err := s.loadColumn(ctx, s.DB, id, columnID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Edit); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("column_id = ?", col.ColumnID).Delete(&domain.Item{}).Error; err != nil {
			return apperr.Backend("delete items", err)
		}
		if err := tx.Delete(col).Error; err != nil {
			return apperr.Backend("delete column", err)
		}
		var rest []domain.Column
		if err := tx.Where("board_id = ?", col.BoardID).Order("position ASC").Find(&rest).Error; err != nil {
			return apperr.Backend("list columns", err)
		}
		for i := range rest {
			if rest[i].Position == i {
				continue
			}
			if err := tx.Model(&rest[i]).Update("position", i).Error; err != nil {
				return apperr.Backend("reindex columns", err)
			}
		}
		return nil
	})
}

// checkAssignee accepts a team member for team content, or the owner for personal content.
func (s *Service) checkAssignee(ctx context.Context, p *domain.Project, assignee uuid.UUID) error {
	if p.TeamID == nil {
		if assignee != p.OwnerID {
			return ErrInvalidAssignee
		}
		return nil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.User{}).
		Where("user_id = ? AND team_id = ?", assignee, *p.TeamID).Count(&n).Error; err != nil {
		return apperr.Backend("check assignee", err)
	}
	if n == 0 {
		return ErrInvalidAssignee
	}
	return nil
}

// CreateItem appends an item to the bottom of a column.
func (s *Service) CreateItem(ctx context.Context, id access.Identity, columnID uuid.UUID, in ItemInput) (*domain.Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	col, p, caps, err := s.loadColumn(ctx, s.DB, id, columnID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	if in.AssigneeID != nil {
		if err := s.checkAssignee(ctx, p, *in.AssigneeID); err != nil {
			return nil, err
		}
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Item{}).Where("column_id = ?", col.ColumnID).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count items", err)
	}
	it := &domain.Item{
		ColumnID:    col.ColumnID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Position:    int(n),
		DueDate:     in.DueDate,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   id.UserID,
	}
	if err := s.DB.WithContext(ctx).Create(it).Error; err != nil {
		return nil, apperr.Backend("create item", err)
	}
	return it, nil
}

// UpdateItem edits an item in place.
func (s *Service) UpdateItem(ctx context.Context, id access.Identity, itemID uuid.UUID, in ItemPatch) (*domain.Item, error) {
	it, _, p, caps, err := s.loadItem(ctx, s.DB, id, itemID)
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
	switch {
	case in.ClearDueDate:
		upd["due_date"] = nil
	case in.DueDate != nil:
		upd["due_date"] = *in.DueDate
	}
	switch {
	case in.ClearAssignee:
		upd["assignee_id"] = nil
	case in.AssigneeID != nil:
		if err := s.checkAssignee(ctx, p, *in.AssigneeID); err != nil {
			return nil, err
		}
		upd["assignee_id"] = *in.AssigneeID
	}
	if len(upd) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.DB.WithContext(ctx).Model(it).Updates(upd).Error; err != nil {
		return nil, apperr.Backend("update item", err)
	}
	if err := s.DB.WithContext(ctx).Where("item_id = ?", it.ItemID).First(it).Error; err != nil {
		return nil, apperr.Backend("reload item", err)
	}
	return it, nil
}

// MoveItem moves an item to a position in a column of the same board. Positions in both the
// source and the target column stay dense from zero.
func (s *Service) MoveItem(ctx context.Context, id access.Identity, itemID uuid.UUID, in MoveInput) (*domain.Item, error) {
	var moved domain.Item
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, from, _, caps, err := s.loadItem(ctx, tx, id, itemID)
		if err != nil {
			return err
		}
		if err := access.Require(caps.Edit); err != nil {
			return err
		}
		to := from
		if in.ColumnID != from.ColumnID {
			var target domain.Column
			if err := tx.Where("column_id = ?", in.ColumnID).First(&target).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrColumnNotFound
				}
				return apperr.Backend("load column", err)
			}
			if target.BoardID != from.BoardID {
				return ErrCrossBoardMove
			}
			to = &target
		}

		var siblings []domain.Item
		if err := tx.Where("column_id = ? AND item_id <> ?", to.ColumnID, it.ItemID).
			Order("position ASC").Find(&siblings).Error; err != nil {
			return apperr.Backend("list items", err)
		}
		pos := in.Position
		if pos < 0 {
			pos = 0
		}
		if pos > len(siblings) {
			pos = len(siblings)
		}
		it.ColumnID = to.ColumnID
		it.Position = pos
		ordered := make([]domain.Item, 0, len(siblings)+1)
		ordered = append(ordered, siblings[:pos]...)
		ordered = append(ordered, *it)
		ordered = append(ordered, siblings[pos:]...)
		for i := range ordered {
			if err := tx.Model(&domain.Item{}).Where("item_id = ?", ordered[i].ItemID).
				Updates(map[string]interface{}{"column_id": to.ColumnID, "position": i}).Error; err != nil {
				return apperr.Backend("reorder items", err)
			}
		}
		if to.ColumnID != from.ColumnID {
			if err := reindexItems(tx, from.ColumnID); err != nil {
				return err
			}
		}
		moved = *it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}

// DeleteItem removes an item and closes the gap in its column.
func (s *Service) DeleteItem(ctx context.Context, id access.Identity, itemID uuid.UUID) error {
	it, _, _, caps, err := s.loadItem(ctx, s.DB, id, itemID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Edit); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(it).Error; err != nil {
			return apperr.Backend("delete item", err)
		}
		return reindexItems(tx, it.ColumnID)
	})
}

func reindexItems(tx *gorm.DB, columnID uuid.UUID) error {
	var items []domain.Item
	if err := tx.Where("column_id = ?", columnID).Order("position ASC").Find(&items).Error; err != nil {
		return apperr.Backend("list items", err)
	}
	for i := range items {
		if items[i].Position == i {
			continue
		}
		if err := tx.Model(&domain.Item{}).Where("item_id = ?", items[i].ItemID).Update("position", i).Error; err != nil {
			return apperr.Backend("reindex items", err)
		}
	}
	return nil
}
