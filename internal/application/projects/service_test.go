package projects

import (
	"context"
	"testing"

	"swifttasks-backend/internal/application/access"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/infrastructure/database"
	"swifttasks-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProjects(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return &Service{DB: db}, db
}

func personal(t *testing.T, db *gorm.DB, email string) access.Identity {
	u := &domain.User{Fullname: "U", Email: email, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return access.IdentityFromUser(u)
}

func teamPair(t *testing.T, db *gorm.DB) (owner, member access.Identity) {
	o := &domain.User{Fullname: "O", Email: "owner@test.com", PasswordHash: "x", AccountType: domain.AccountTeamMember, IsTeamOwner: true}
	require.NoError(t, db.Create(o).Error)
	team := &domain.Team{Name: "T", OwnerID: o.UserID}
	require.NoError(t, db.Create(team).Error)
	o.TeamID = &team.TeamID
	require.NoError(t, db.Save(o).Error)
	m := &domain.User{Fullname: "M", Email: "member@test.com", PasswordHash: "x", AccountType: domain.AccountTeamMember, TeamID: &team.TeamID}
	require.NoError(t, db.Create(m).Error)
	return access.IdentityFromUser(o), access.IdentityFromUser(m)
}

func itemTitles(t *testing.T, svc *Service, id access.Identity, boardID uuid.UUID) [][]string {
	view, err := svc.GetBoard(context.Background(), id, boardID)
	require.NoError(t, err)
	out := make([][]string, len(view.Columns))
	for i, c := range view.Columns {
		out[i] = []string{}
		for j, it := range c.Items {
			assert.Equal(t, j, it.Position)
			out[i] = append(out[i], it.Title)
		}
	}
	return out
}

func TestCreateProject_EnforcesPersonalLimit(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	id := personal(t, db, "a@test.com")

	_, err := svc.CreateProject(ctx, id, ProjectInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	for i := 0; i < constants.PersonalLimits.Projects; i++ {
		p, err := svc.CreateProject(ctx, id, ProjectInput{Name: "p"})
		require.NoError(t, err)
		assert.Nil(t, p.TeamID)
		assert.Equal(t, id.UserID, p.OwnerID)
	}
	_, err = svc.CreateProject(ctx, id, ProjectInput{Name: "over"})
	assert.ErrorIs(t, err, ErrProjectLimit)

	list, err := svc.ListProjects(ctx, id)
	require.NoError(t, err)
	assert.Len(t, list, constants.PersonalLimits.Projects)
	assert.True(t, list[0].Capabilities.Manage)
}

func TestProject_VisibilityAndPermissions(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	owner, member := teamPair(t, db)
	outsider := personal(t, db, "out@test.com")

	p, err := svc.CreateProject(ctx, owner, ProjectInput{Name: "Roadmap"})
	require.NoError(t, err)
	require.NotNil(t, p.TeamID)

	_, err = svc.GetProject(ctx, outsider, p.ProjectID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	detail, err := svc.GetProject(ctx, member, p.ProjectID)
	require.NoError(t, err)
	assert.True(t, detail.Capabilities.Edit)
	assert.False(t, detail.Capabilities.Delete)

	name := "Renamed"
	updated, err := svc.UpdateProject(ctx, member, p.ProjectID, ProjectPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	_, err = svc.UpdateProject(ctx, member, p.ProjectID, ProjectPatch{})
	assert.ErrorIs(t, err, ErrNothingToUpdate)

	assert.ErrorIs(t, svc.DeleteProject(ctx, member, p.ProjectID), access.ErrPermissionDenied)
	require.NoError(t, svc.DeleteProject(ctx, owner, p.ProjectID))
	_, err = svc.GetProject(ctx, owner, p.ProjectID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateBoard_DefaultColumnsAndLimit(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	id := personal(t, db, "a@test.com")
	p, err := svc.CreateProject(ctx, id, ProjectInput{Name: "p"})
	require.NoError(t, err)

	view, err := svc.CreateBoard(ctx, id, p.ProjectID, "Sprint")
	require.NoError(t, err)
	require.Len(t, view.Columns, len(DefaultColumns))
	for i, c := range view.Columns {
		assert.Equal(t, DefaultColumns[i], c.Name)
		assert.Equal(t, i, c.Position)
	}
	for i := 1; i < constants.PersonalLimits.BoardsPerProject; i++ {
		_, err := svc.CreateBoard(ctx, id, p.ProjectID, "b")
		require.NoError(t, err)
	}
	_, err = svc.CreateBoard(ctx, id, p.ProjectID, "over")
	assert.ErrorIs(t, err, ErrBoardLimit)
}

func TestMoveItem_KeepsPositionsDense(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	id := personal(t, db, "a@test.com")
	p, err := svc.CreateProject(ctx, id, ProjectInput{Name: "p"})
	require.NoError(t, err)
	board, err := svc.CreateBoard(ctx, id, p.ProjectID, "b")
	require.NoError(t, err)
	todo, doing := board.Columns[0].ColumnID, board.Columns[1].ColumnID

	var items []*domain.Item
	for _, title := range []string{"a", "b", "c"} {
		it, err := svc.CreateItem(ctx, id, todo, ItemInput{Title: title})
		require.NoError(t, err)
		items = append(items, it)
	}
	assert.Equal(t, [][]string{{"a", "b", "c"}, {}, {}}, itemTitles(t, svc, id, board.Board.BoardID))

	_, err = svc.MoveItem(ctx, id, items[2].ItemID, MoveInput{ColumnID: todo, Position: 0})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"c", "a", "b"}, {}, {}}, itemTitles(t, svc, id, board.Board.BoardID))

	moved, err := svc.MoveItem(ctx, id, items[0].ItemID, MoveInput{ColumnID: doing, Position: 99})
	require.NoError(t, err)
	assert.Equal(t, doing, moved.ColumnID)
	assert.Equal(t, 0, moved.Position)
	assert.Equal(t, [][]string{{"c", "b"}, {"a"}, {}}, itemTitles(t, svc, id, board.Board.BoardID))

	require.NoError(t, svc.DeleteItem(ctx, id, items[2].ItemID))
	assert.Equal(t, [][]string{{"b"}, {"a"}, {}}, itemTitles(t, svc, id, board.Board.BoardID))

	other, err := svc.CreateBoard(ctx, id, p.ProjectID, "other")
	require.NoError(t, err)
	_, err = svc.MoveItem(ctx, id, items[1].ItemID, MoveInput{ColumnID: other.Columns[0].ColumnID})
	assert.ErrorIs(t, err, ErrCrossBoardMove)
}

func TestItems_AssigneeAndPatch(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	owner, member := teamPair(t, db)
	outsider := personal(t, db, "out@test.com")
	p, err := svc.CreateProject(ctx, owner, ProjectInput{Name: "p"})
	require.NoError(t, err)
	board, err := svc.CreateBoard(ctx, owner, p.ProjectID, "b")
	require.NoError(t, err)
	col := board.Columns[0].ColumnID

	_, err = svc.CreateItem(ctx, member, col, ItemInput{Title: "x", AssigneeID: &outsider.UserID})
	assert.ErrorIs(t, err, ErrInvalidAssignee)

	it, err := svc.CreateItem(ctx, member, col, ItemInput{Title: "x", AssigneeID: &member.UserID})
	require.NoError(t, err)
	assert.Equal(t, member.UserID, it.CreatedBy)

	_, err = svc.CreateItem(ctx, outsider, col, ItemInput{Title: "x"})
	assert.ErrorIs(t, err, ErrColumnNotFound)

	title := "renamed"
	updated, err := svc.UpdateItem(ctx, owner, it.ItemID, ItemPatch{Title: &title, ClearAssignee: true})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Nil(t, updated.AssigneeID)
}

func TestDeleteBoard_DetachesEmbeddedPages(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	id := personal(t, db, "a@test.com")
	p, err := svc.CreateProject(ctx, id, ProjectInput{Name: "p"})
	require.NoError(t, err)
	board, err := svc.CreateBoard(ctx, id, p.ProjectID, "b")
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, id, board.Columns[0].ColumnID, ItemInput{Title: "x"})
	require.NoError(t, err)
	space := &domain.DocSpace{Name: "s", OwnerID: id.UserID}
	require.NoError(t, db.Create(space).Error)
	page := &domain.DocPage{SpaceID: space.SpaceID, Title: "pg", EmbeddedBoardID: &board.Board.BoardID, CreatedBy: id.UserID}
	require.NoError(t, db.Create(page).Error)

	ok, err := svc.CanViewBoard(ctx, id, board.Board.BoardID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.DeleteBoard(ctx, id, board.Board.BoardID))

	var reloaded domain.DocPage
	require.NoError(t, db.First(&reloaded, "page_id = ?", page.PageID).Error)
	assert.Nil(t, reloaded.EmbeddedBoardID)
	var n int64
	db.Model(&domain.Item{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&domain.Column{}).Count(&n)
	assert.Zero(t, n)

	ok, err = svc.CanViewBoard(ctx, id, board.Board.BoardID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteColumn_Reindexes(t *testing.T) {
	svc, db := setupProjects(t)
	ctx := context.Background()
	id := personal(t, db, "a@test.com")
	p, err := svc.CreateProject(ctx, id, ProjectInput{Name: "p"})
	require.NoError(t, err)
	board, err := svc.CreateBoard(ctx, id, p.ProjectID, "b")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteColumn(ctx, id, board.Columns[0].ColumnID))
	view, err := svc.GetBoard(ctx, id, board.Board.BoardID)
	require.NoError(t, err)
	require.Len(t, view.Columns, 2)
	assert.Equal(t, "In Progress", view.Columns[0].Name)
	assert.Equal(t, 0, view.Columns[0].Position)
	assert.Equal(t, 1, view.Columns[1].Position)

	col, err := svc.CreateColumn(ctx, id, board.Board.BoardID, "Review")
	require.NoError(t, err)
	assert.Equal(t, 2, col.Position)
}
