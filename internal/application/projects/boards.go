package projects

import (
	"context"
	"errors"
	"strings"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultColumns are created with every new board.
var DefaultColumns = []string{"To Do", "In Progress", "Done"}

// ColumnView is a column with its items ordered by position.
type ColumnView struct {
	domain.Column
	Items []domain.Item `json:"items"`
}

// BoardView is a board snapshot.
type BoardView struct {
	Board        domain.Board        `json:"board"`
	ProjectID    uuid.UUID           `json:"project_id"`
	Columns      []ColumnView        `json:"columns"`
	Capabilities access.Capabilities `json:"capabilities"`
}

func (s *Service) loadBoard(ctx context.Context, db *gorm.DB, id access.Identity, boardID uuid.UUID) (*domain.Board, *domain.Project, access.Capabilities, error) {
	var b domain.Board
	if err := db.WithContext(ctx).Where("board_id = ?", boardID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, access.Capabilities{}, ErrBoardNotFound
		}
		return nil, nil, access.Capabilities{}, apperr.Backend("load board", err)
	}
	p, caps, err := s.loadProject(ctx, db, id, b.ProjectID)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, nil, caps, ErrBoardNotFound
		}
		return nil, nil, caps, err
	}
	return &b, p, caps, nil
}

// CreateBoard adds a board with the default columns to a project, within the plan limit.
func (s *Service) CreateBoard(ctx context.Context, id access.Identity, projectID uuid.UUID, name string) (*BoardView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	p, caps, err := s.loadProject(ctx, s.DB, id, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Board{}).Where("project_id = ?", p.ProjectID).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count boards", err)
	}
	if access.CheckLimit(n, access.LimitsFor(id).BoardsPerProject) != nil {
		return nil, ErrBoardLimit
	}
	b := &domain.Board{ProjectID: p.ProjectID, Name: name}
	view := &BoardView{ProjectID: p.ProjectID, Capabilities: caps}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return apperr.Backend("create board", err)
		}
		for i, colName := range DefaultColumns {
			col := domain.Column{BoardID: b.BoardID, Name: colName, Position: i}
			if err := tx.Create(&col).Error; err != nil {
				return apperr.Backend("create column", err)
			}
			view.Columns = append(view.Columns, ColumnView{Column: col, Items: []domain.Item{}})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.Board = *b
	return view, nil
}

// GetBoard returns the board with columns and items ordered by position.
func (s *Service) GetBoard(ctx context.Context, id access.Identity, boardID uuid.UUID) (*BoardView, error) {
	b, p, caps, err := s.loadBoard(ctx, s.DB, id, boardID)
	if err != nil {
		return nil, err
	}
	cols, err := Snapshot(ctx, s.DB, b.BoardID)
	if err != nil {
		return nil, err
	}
	return &BoardView{Board: *b, ProjectID: p.ProjectID, Columns: cols, Capabilities: caps}, nil
}

// Snapshot reads the columns and items of a board. No access checks.
func Snapshot(ctx context.Context, db *gorm.DB, boardID uuid.UUID) ([]ColumnView, error) {
	var cols []domain.Column
	if err := db.WithContext(ctx).Where("board_id = ?", boardID).Order("position ASC").Find(&cols).Error; err != nil {
		return nil, apperr.Backend("list columns", err)
	}
	out := make([]ColumnView, 0, len(cols))
	if len(cols) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(cols))
	for i, c := range cols {
		ids[i] = c.ColumnID
	}
	var items []domain.Item
	if err := db.WithContext(ctx).Where("column_id IN ?", ids).Order("position ASC").Find(&items).Error; err != nil {
		return nil, apperr.Backend("list items", err)
	}
	byColumn := make(map[uuid.UUID][]domain.Item, len(cols))
	for _, it := range items {
		byColumn[it.ColumnID] = append(byColumn[it.ColumnID], it)
	}
	for _, c := range cols {
		its := byColumn[c.ColumnID]
		if its == nil {
			its = []domain.Item{}
		}
		out = append(out, ColumnView{Column: c, Items: its})
	}
	return out, nil
}

// RenameBoard changes a board's name.
func (s *Service) RenameBoard(ctx context.Context, id access.Identity, boardID uuid.UUID, name string) (*domain.Board, error) {
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
	if err := s.DB.WithContext(ctx).Model(b).Update("name", name).Error; err != nil {
		return nil, apperr.Backend("rename board", err)
	}
	b.Name = name
	return b, nil
}

// DeleteBoard removes a board with its columns and items.
func (s *Service) DeleteBoard(ctx context.Context, id access.Identity, boardID uuid.UUID) error {
	b, _, caps, err := s.loadBoard(ctx, s.DB, id, boardID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Delete); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteBoards(tx, []uuid.UUID{b.BoardID})
	})
}

// CanViewBoard reports whether id may see boardID. Used by doc page embeds.
func (s *Service) CanViewBoard(ctx context.Context, id access.Identity, boardID uuid.UUID) (bool, error) {
	_, _, caps, err := s.loadBoard(ctx, s.DB, id, boardID)
	if errors.Is(err, ErrBoardNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return caps.View, nil
}
