package projects

import "swifttasks-backend/internal/pkg/apperr"

var (
	ErrProjectNotFound = apperr.New(apperr.KindNotFound, "Project not found")
	ErrBoardNotFound   = apperr.New(apperr.KindNotFound, "Board not found")
	ErrColumnNotFound  = apperr.New(apperr.KindNotFound, "Column not found")
	ErrItemNotFound    = apperr.New(apperr.KindNotFound, "Item not found")
	ErrNameRequired    = apperr.New(apperr.KindValidation, "name is required")
	ErrTitleRequired   = apperr.New(apperr.KindValidation, "title is required")
	ErrNothingToUpdate = apperr.New(apperr.KindValidation, "No valid update fields provided")
	ErrCrossBoardMove  = apperr.New(apperr.KindValidation, "Items can only move between columns of the same board")
	ErrInvalidAssignee = apperr.New(apperr.KindValidation, "Assignee must be a member of the workspace")
	ErrProjectLimit    = apperr.New(apperr.KindLimitReached, "Project limit reached for your plan")
	ErrBoardLimit      = apperr.New(apperr.KindLimitReached, "Board limit reached for this project")
)
