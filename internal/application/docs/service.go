// Package docs implements documentation spaces and their pages.
package docs

import (
	"context"
	"errors"
	"strings"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/application/projects"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/apperr"
	"swifttasks-backend/internal/pkg/htmlsanitize"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrSpaceNotFound   = apperr.New(apperr.KindNotFound, "Space not found")
	ErrPageNotFound    = apperr.New(apperr.KindNotFound, "Page not found")
	ErrNameRequired    = apperr.New(apperr.KindValidation, "name is required")
	ErrTitleRequired   = apperr.New(apperr.KindValidation, "title is required")
	ErrNothingToUpdate = apperr.New(apperr.KindValidation, "No valid update fields provided")
	ErrSpaceLimit      = apperr.New(apperr.KindLimitReached, "Doc space limit reached for your plan")
	ErrPageLimit       = apperr.New(apperr.KindLimitReached, "Page limit reached for this space")
	ErrBoardNotVisible = apperr.New(apperr.KindValidation, "Board not found or not visible")
)

// Service holds the DB and the kanban service used for embedded previews.
type Service struct {
	DB     *gorm.DB
	Boards *projects.Service
}

// PageInput is the create body for a page.
type PageInput struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Content         string     `json:"content"`
	EmbeddedBoardID *uuid.UUID `json:"embedded_board_id"`
}

// PagePatch lists editable page fields. ClearEmbed removes the board preview.
type PagePatch struct {
	Title           *string    `json:"title" validate:"omitempty,max=200"`
	Content         *string    `json:"content"`
	EmbeddedBoardID *uuid.UUID `json:"embedded_board_id"`
	ClearEmbed      bool       `json:"clear_embed"`
}

// SpaceView is a space with its pages (without content) and the caller's capabilities.
type SpaceView struct {
	Space        domain.DocSpace     `json:"space"`
	Pages        []PageSummary       `json:"pages"`
	Capabilities access.Capabilities `json:"capabilities"`
}

// PageSummary lists a page without its content.
type PageSummary struct {
	PageID   uuid.UUID `json:"page_id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
}

// BoardPreview is a read-only kanban snapshot rendered inside a page.
type BoardPreview struct {
	BoardID uuid.UUID             `json:"board_id"`
	Columns []projects.ColumnView `json:"columns"`
}

// PageView is a page with an optional embedded board preview.
type PageView struct {
	Page         domain.DocPage      `json:"page"`
	Preview      *BoardPreview       `json:"board_preview,omitempty"`
	Capabilities access.Capabilities `json:"capabilities"`
}

func (s *Service) loadSpace(ctx context.Context, id access.Identity, spaceID uuid.UUID) (*domain.DocSpace, access.Capabilities, error) {
	var sp domain.DocSpace
	if err := s.DB.WithContext(ctx).Where("space_id = ?", spaceID).First(&sp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrSpaceNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load space", err)
	}
	caps := access.Decide(id, access.Resource{OwnerID: sp.OwnerID, TeamID: sp.TeamID})
	if !caps.View {
		return nil, caps, ErrSpaceNotFound
	}
	return &sp, caps, nil
}

// SpaceAccess loads a space and returns the caller's capabilities on it.
func (s *Service) SpaceAccess(ctx context.Context, id access.Identity, spaceID uuid.UUID) (*domain.DocSpace, access.Capabilities, error) {
	return s.loadSpace(ctx, id, spaceID)
}

func (s *Service) loadPage(ctx context.Context, id access.Identity, pageID uuid.UUID) (*domain.DocPage, access.Capabilities, error) {
	var pg domain.DocPage
	if err := s.DB.WithContext(ctx).Where("page_id = ?", pageID).First(&pg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Capabilities{}, ErrPageNotFound
		}
		return nil, access.Capabilities{}, apperr.Backend("load page", err)
	}
	_, caps, err := s.loadSpace(ctx, id, pg.SpaceID)
	if err != nil {
		if errors.Is(err, ErrSpaceNotFound) {
			return nil, caps, ErrPageNotFound
		}
		return nil, caps, err
	}
	return &pg, caps, nil
}

// CreateSpace creates a space in the caller's namespace, within the plan limit.
func (s *Service) CreateSpace(ctx context.Context, id access.Identity, name string) (*domain.DocSpace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.DocSpace{}).Scopes(access.Namespace(id, "")).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count spaces", err)
	}
	if access.CheckLimit(n, access.LimitsFor(id).DocSpaces) != nil {
		return nil, ErrSpaceLimit
	}
	ownerID, teamID := access.NewResourceOwnership(id)
	sp := &domain.DocSpace{Name: name, OwnerID: ownerID, TeamID: teamID}
	if err := s.DB.WithContext(ctx).Create(sp).Error; err != nil {
		return nil, apperr.Backend("create space", err)
	}
	return sp, nil
}

// ListSpaces returns the spaces of the caller's namespace.
func (s *Service) ListSpaces(ctx context.Context, id access.Identity) ([]domain.DocSpace, error) {
	var out []domain.DocSpace
	if err := s.DB.WithContext(ctx).Scopes(access.Namespace(id, "")).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperr.Backend("list spaces", err)
	}
	return out, nil
}

// GetSpace returns a space and its page index.
func (s *Service) GetSpace(ctx context.Context, id access.Identity, spaceID uuid.UUID) (*SpaceView, error) {
	sp, caps, err := s.loadSpace(ctx, id, spaceID)
	if err != nil {
		return nil, err
	}
	pages := []PageSummary{}
	if err := s.DB.WithContext(ctx).Model(&domain.DocPage{}).Select("page_id", "title", "position").
		Where("space_id = ?", sp.SpaceID).Order("position ASC").Scan(&pages).Error; err != nil {
		return nil, apperr.Backend("list pages", err)
	}
	return &SpaceView{Space: *sp, Pages: pages, Capabilities: caps}, nil
}

// RenameSpace changes a space's name.
func (s *Service) RenameSpace(ctx context.Context, id access.Identity, spaceID uuid.UUID, name string) (*domain.DocSpace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	sp, caps, err := s.loadSpace(ctx, id, spaceID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(sp).Update("name", name).Error; err != nil {
		return nil, apperr.Backend("rename space", err)
	}
	sp.Name = name
	return sp, nil
}

// DeleteSpace removes a space and all its pages.
func (s *Service) DeleteSpace(ctx context.Context, id access.Identity, spaceID uuid.UUID) error {
	sp, caps, err := s.loadSpace(ctx, id, spaceID)
	if err != nil {
		return err
	}
	if err := access.Require(caps.Delete); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("space_id = ?", sp.SpaceID).Delete(&domain.DocPage{}).Error; err != nil {
			return apperr.Backend("delete pages", err)
		}
		if err := tx.Delete(sp).Error; err != nil {
			return apperr.Backend("delete space", err)
		}
		return nil
	})
}

func (s *Service) checkEmbed(ctx context.Context, id access.Identity, boardID uuid.UUID) error {
	if s.Boards == nil {
		return ErrBoardNotVisible
	}
	ok, err := s.Boards.CanViewBoard(ctx, id, boardID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBoardNotVisible
	}
	return nil
}

// CreatePage appends a page to a space. Content is sanitized before storage.
func (s *Service) CreatePage(ctx context.Context, id access.Identity, spaceID uuid.UUID, in PageInput) (*domain.DocPage, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	sp, caps, err := s.loadSpace(ctx, id, spaceID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(caps.Edit); err != nil {
		return nil, err
	}
	if in.EmbeddedBoardID != nil {
		if err := s.checkEmbed(ctx, id, *in.EmbeddedBoardID); err != nil {
			return nil, err
		}
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&domain.DocPage{}).Where("space_id = ?", sp.SpaceID).Count(&n).Error; err != nil {
		return nil, apperr.Backend("count pages", err)
	}
	if access.CheckLimit(n, access.LimitsFor(id).PagesPerSpace) != nil {
		return nil, ErrPageLimit
	}
	pg := &domain.DocPage{
		SpaceID:         sp.SpaceID,
		Title:           title,
		Content:         htmlsanitize.Sanitize(in.Content),
		Position:        int(n),
		EmbeddedBoardID: in.EmbeddedBoardID,
		CreatedBy:       id.UserID,
	}
	if err := s.DB.WithContext(ctx).Create(pg).Error; err != nil {
		return nil, apperr.Backend("create page", err)
	}
	return pg, nil
}

// GetPage returns a page. The embedded board preview is included only when the caller can
// view the board.
func (s *Service) GetPage(ctx context.Context, id access.Identity, pageID uuid.UUID) (*PageView, error) {
	pg, caps, err := s.loadPage(ctx, id, pageID)
	if err != nil {
		return nil, err
	}
	view := &PageView{Page: *pg, Capabilities: caps}
	if pg.EmbeddedBoardID == nil || s.Boards == nil {
		return view, nil
	}
	ok, err := s.Boards.CanViewBoard(ctx, id, *pg.EmbeddedBoardID)
	if err != nil {
		log.Warn().Err(err).Str("page_id", pg.PageID.String()).Msg("board preview check failed")
		return view, nil
	}
	if !ok {
		return view, nil
	}
	cols, err := projects.Snapshot(ctx, s.DB, *pg.EmbeddedBoardID)
	if err != nil {
		log.Warn().Err(err).Str("page_id", pg.PageID.String()).Msg("board preview load failed")
		return view, nil
	}
	view.Preview = &BoardPreview{BoardID: *pg.EmbeddedBoardID, Columns: cols}
	return view, nil
}

// UpdatePage edits title, content or embed of a page.
func (s *Service) UpdatePage(ctx context.Context, id access.Identity, pageID uuid.UUID, in PagePatch) (*domain.DocPage, error) {
	pg, caps, err := s.loadPage(ctx, id, pageID)
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
	if in.Content != nil {
		upd["content"] = htmlsanitize.Sanitize(*in.Content)
	}
	switch {
	case in.ClearEmbed:
		upd["embedded_board_id"] = nil
	case in.EmbeddedBoardID != nil:
		if err := s.checkEmbed(ctx, id, *in.EmbeddedBoardID); err != nil {
			return nil, err
		}
		upd["embedded_board_id"] = *in.EmbeddedBoardID
	}
	if len(upd) == 0 {
		return nil, ErrNothingToUpdate
	}
	if err := s.DB.WithContext(ctx).Model(pg).Updates(upd).Error; err != nil {
		return nil, apperr.Backend("update page", err)
	}
	if err := s.DB.WithContext(ctx).Where("page_id = ?", pg.PageID).First(pg).Error; err != nil {
		return nil, apperr.Backend("reload page", err)
	}
	return pg, nil
}

// DeletePage removes a page. Members may delete pages they wrote; the space owner any page.
func (s *Service) DeletePage(ctx context.Context, id access.Identity, pageID uuid.UUID) error {
	pg, caps, err := s.loadPage(ctx, id, pageID)
	if err != nil {
		return err
	}
	if !caps.Delete && pg.CreatedBy != id.UserID {
		return access.ErrPermissionDenied
	}
	if err := s.DB.WithContext(ctx).Delete(pg).Error; err != nil {
		return apperr.Backend("delete page", err)
	}
	return nil
}
