package access

import (
	"testing"

	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func teamPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestDecide_PersonalOwner(t *testing.T) {
	me := Identity{UserID: uuid.New()}
	caps := Decide(me, Resource{OwnerID: me.UserID})
	assert.Equal(t, Capabilities{View: true, Edit: true, Delete: true, Manage: true}, caps)
}

func TestDecide_PersonalStranger(t *testing.T) {
	me := Identity{UserID: uuid.New()}
	caps := Decide(me, Resource{OwnerID: uuid.New()})
	assert.Equal(t, Capabilities{}, caps)
}

func TestDecide_OwnPersonalRowWhileInTeam(t *testing.T) {
	team := uuid.New()
	me := Identity{UserID: uuid.New(), TeamID: &team}
	caps := Decide(me, Resource{OwnerID: me.UserID})
	assert.False(t, caps.View)
}

func TestDecide_TeamMember(t *testing.T) {
	team := uuid.New()
	me := Identity{UserID: uuid.New(), TeamID: &team}

	other := Decide(me, Resource{OwnerID: uuid.New(), TeamID: teamPtr(team)})
	assert.True(t, other.View)
	assert.True(t, other.Edit)
	assert.False(t, other.Delete)
	assert.False(t, other.Manage)

	mine := Decide(me, Resource{OwnerID: me.UserID, TeamID: teamPtr(team)})
	assert.True(t, mine.Delete)
	assert.False(t, mine.Manage)
}

func TestDecide_TeamOwner(t *testing.T) {
	team := uuid.New()
	owner := Identity{UserID: uuid.New(), TeamID: &team, IsTeamOwner: true}
	caps := Decide(owner, Resource{OwnerID: uuid.New(), TeamID: teamPtr(team)})
	assert.True(t, caps.Manage)
	assert.True(t, caps.Delete)
}

func TestDecide_OtherTeam(t *testing.T) {
	team := uuid.New()
	owner := Identity{UserID: uuid.New(), TeamID: &team, IsTeamOwner: true}
	caps := Decide(owner, Resource{OwnerID: uuid.New(), TeamID: teamPtr(uuid.New())})
	assert.Equal(t, Capabilities{}, caps)
}

func TestDecide_Anonymous(t *testing.T) {
	caps := Decide(Identity{}, Resource{OwnerID: uuid.Nil})
	assert.Equal(t, Capabilities{}, caps)
}

func TestDecideTeam(t *testing.T) {
	team := uuid.New()
	owner := Identity{UserID: uuid.New(), TeamID: &team, IsTeamOwner: true}
	member := Identity{UserID: uuid.New(), TeamID: &team}
	outsider := Identity{UserID: uuid.New()}

	assert.True(t, DecideTeam(owner, team).InviteMembers)
	assert.True(t, DecideTeam(member, team).ViewMembers)
	assert.False(t, DecideTeam(member, team).InviteMembers)
	assert.Equal(t, TeamCapabilities{}, DecideTeam(outsider, team))
}

func TestLimitsFor(t *testing.T) {
	team := uuid.New()
	assert.Equal(t, constants.PersonalLimits, LimitsFor(Identity{UserID: uuid.New()}))
	assert.Equal(t, constants.TeamLimits, LimitsFor(Identity{UserID: uuid.New(), TeamID: &team}))
}

func TestCheckLimit(t *testing.T) {
	assert.NoError(t, CheckLimit(2, 3))
	assert.ErrorIs(t, CheckLimit(3, 3), ErrLimitReached)
}

func TestNamespace_ScopesQueries(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Project{}))

	me := uuid.New()
	team := uuid.New()
	require.NoError(t, db.Create(&domain.Project{Name: "mine", OwnerID: me}).Error)
	require.NoError(t, db.Create(&domain.Project{Name: "team", OwnerID: uuid.New(), TeamID: &team}).Error)
	require.NoError(t, db.Create(&domain.Project{Name: "mine in team", OwnerID: me, TeamID: &team}).Error)

	var personal []domain.Project
	require.NoError(t, db.Scopes(Namespace(Identity{UserID: me}, "")).Find(&personal).Error)
	require.Len(t, personal, 1)
	assert.Equal(t, "mine", personal[0].Name)

	var teamRows []domain.Project
	require.NoError(t, db.Scopes(Namespace(Identity{UserID: me, TeamID: &team}, "")).Find(&teamRows).Error)
	assert.Len(t, teamRows, 2)
}
