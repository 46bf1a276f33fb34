package policies

import "swifttasks-backend/internal/pkg/apperr"

var (
	ErrNotInTeam            = apperr.New(apperr.KindPermissionDenied, "You are not a member of any team")
	ErrOnlyOwnerCanInvite   = apperr.New(apperr.KindPermissionDenied, "Only the team owner can invite members")
	ErrOnlyOwnerCanRemove   = apperr.New(apperr.KindPermissionDenied, "Only the team owner can remove members")
	ErrCannotInviteYourself = apperr.New(apperr.KindValidation, "You cannot invite yourself")
	ErrAlreadyMember        = apperr.New(apperr.KindConflict, "User already belongs to this team")
	ErrPendingInviteExists  = apperr.New(apperr.KindConflict, "A pending invitation already exists for this email")
	ErrTeamFull             = apperr.New(apperr.KindLimitReached, "Team member limit reached")

	ErrCannotRemoveYourself = apperr.New(apperr.KindValidation, "You cannot remove yourself from the team")
	ErrUserNotFound         = apperr.New(apperr.KindNotFound, "User not found")
	ErrUserNotInYourTeam    = apperr.New(apperr.KindPermissionDenied, "User does not belong to your team")
	ErrOwnerCannotLeave     = apperr.New(apperr.KindConflict, "The team owner cannot leave the team")
	ErrAlreadyInTeam        = apperr.New(apperr.KindConflict, "You already belong to a team")
)
