// Package projects implements projects and their kanban boards.
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

// Service holds the DB for project and kanban operations.
type Service struct {
	DB *gorm.DB
}

// ProjectInput is the create body.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
}

// ProjectPatch lists editable fields; nil means unchanged.
type ProjectPatch struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// ProjectView is a project with what the caller may do with it.
type ProjectView struct {
	domain.Project
	BoardCount   int64               `json:"board_count"`
	Capabilities access.Capabilities `json:"capabilities"`
}

// ProjectDetail is a project with its boards.
type ProjectDetail struct {
	Project      domain.Project      `json:"project"`
	Boards       []domain.Board      `json:"boards"`
	Capabilities access.Capabilities `json:"capabilities"`
}

func resource(p *domain.Project) access.Resource {
	return access.Resource{OwnerID: p.OwnerID, TeamID: p.TeamID}
}

func (s *Service) loadProject(ctx context.Context, db *gorm.DB, id access.Identity, projectID uuid.UUID) (*domain.Project, access.Capabilities, error) {
	var p domain.Project
	if err := db.WithContext(ctx).Where("project_id = ?", projectID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrProjectNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load project", err)
	}
	caps := access.Decide(id, resource(&p))
	if !caps.View {
		return nil, caps, ErrProjectNotFound
	}
	return &p, caps, nil
}

// CreateProject creates a project in the caller's namespace, within the plan limit.
func (s *Service) CreateProject(ctx context.Context, id access.Identity, in ProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.Project{}).Scopes(access.Namespace(id, "")).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count projects", err)
	}
	if access.CheckLimit(n, access.LimitsFor(id).Projects) != nil {
		return nil, ErrProjectLimit
	}
	ownerID, teamID := access.NewResourceOwnership(id)
	p := &domain.Project{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     ownerID,
		TeamID:      teamID,
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, apperr.Backend("create project", err)
	}
	return p, nil
}

// ListProjects returns the projects of the caller's namespace, newest first.
func (s *Service) ListProjects(ctx context.Context, id access.Identity) ([]ProjectView, error) {
	var ps []domain.Project
	if err := s.DB.WithContext(ctx).Scopes(access.Namespace(id, "")).
		Order("created_at DESC").Find(&ps).Error; err != nil {
		return nil, apperr.Backend("list projects", err)
	}
	out := make([]ProjectView, 0, len(ps))
	for i := range ps {
		var boards int64
		if err := s.DB.WithContext(ctx).Model(&domain.Board{}).Where("project_id = ?", ps[i].ProjectID).Count(&boards).Error; err != nil {
			return nil, apperr.Backend("count boards", err)
		}
		out = append(out, ProjectView{Project: ps[i], BoardCount: boards, Capabilities: access.Decide(id, resource(&ps[i]))})
	}
	return out, nil
}

// GetProject returns a visible project with its boards.
func (s *Service) GetProject(ctx context.Context, id access.Identity, projectID uuid.UUID) (*ProjectDetail, error) {
	p, caps, err := s.loadProject(ctx, s.DB, id, projectID)
	if err != nil {
		return nil, err
	}
	var boards []domain.Board
	if err := s.DB.WithContext(ctx).Where("project_id = ?", p.ProjectID).Order("created_at ASC").Find(&boards).Error; err != nil {
		return nil, apperr.Backend("list boards", err)
	}
	return &ProjectDetail{Project: *p, Boards: boards, Capabilities: caps}, nil
}

// UpdateProject renames or re-describes a project.
func (s *Service) UpdateProject(ctx context.Context, id access.Identity, projectID uuid.UUID, in ProjectPatch) (*domain.Project, error) {
	p, caps, err := s.loadProject(ctx, s.DB, id, projectID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	upd := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		upd["name"] = name
	}
	if in.Description != nil {
		upd["description"] = strings.TrimSpace(*in.Description)
	}
	if len(upd) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.DB.WithContext(ctx).Model(p).Updates(upd).Error; err != nil {
		return nil, apperr.Backend("update project", err)
	}
	if err := s.DB.WithContext(ctx).Where("project_id = ?", p.ProjectID).First(p).Error; err != nil {
		return nil, apperr.Backend("reload project", err)
	}
	return p, nil
}

// DeleteProject removes a project with all its boards, columns and items.
func (s *Service) DeleteProject(ctx context.Context, id access.Identity, projectID uuid.UUID) error {
	p, caps, err := s.loadProject(ctx, s.DB, id, projectID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Delete); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var boardIDs []uuid.UUID
		if err := tx.Model(&domain.Board{}).Where("project_id = ?", p.ProjectID).Pluck("board_id", &boardIDs).Error; err != nil {
			return apperr.Backend("select boards", err)
		}
		if err := deleteBoards(tx, boardIDs); err != nil {
			return err
		}
		if err := tx.Delete(p).Error; err != nil {
			return apperr.Backend("delete project", err)
		}
		return nil
	})
}

// deleteBoards removes boards child-first and clears doc page embeds pointing at them.
func deleteBoards(tx *gorm.DB, boardIDs []uuid.UUID) error {
	if len(boardIDs) == 0 {
		return nil
	}
	var columnIDs []uuid.UUID
	if err := tx.Model(&domain.Column{}).Where("board_id IN ?", boardIDs).Pluck("column_id", &columnIDs).Error; err != nil {
		return apperr.Backend("select columns", err)
	}
	if len(columnIDs) > 0 {
		if err := tx.Where("column_id IN ?", columnIDs).Delete(&domain.Item{}).Error; err != nil {
			return apperr.Backend("delete items", err)
		}
		if err := tx.Where("column_id IN ?", columnIDs).Delete(&domain.Column{}).Error; err != nil {
			return apperr.Backend("delete columns", err)
		}
	}
	if err := tx.Model(&domain.DocPage{}).Where("embedded_board_id IN ?", boardIDs).
		Update("embedded_board_id", nil).Error; err != nil {
		return apperr.Backend("detach embeds", err)
	}
	if err := tx.Where("board_id IN ?", boardIDs).Delete(&domain.Board{}).Error; err != nil {
		return apperr.Backend("delete boards", err)
	}
	return nil
}
