package invitations

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	invsvc "swifttasks-backend/internal/application/invitations"
	"swifttasks-backend/internal/application/migration"
	"swifttasks-backend/internal/application/notifications"
	"swifttasks-backend/internal/domain"
	"swifttasks-backend/internal/infrastructure/database"
	"swifttasks-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	app  *fiber.App
	db   *gorm.DB
	team *domain.Team
}

func setupInviteApp(t *testing.T) *harness {
	mr := miniredis.RunT(t)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	cfg := middleware.SessionConfig{RedisURL: "redis://" + mr.Addr()}
	session, rdb, err := middleware.Session(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	notes := &notifications.Service{DB: db}
	inv := &invsvc.Service{DB: db, Notifications: notes, InviteBaseURL: "https://app.test/join/"}
	h := &Handlers{
		Service:   inv,
		Migration: &migration.Service{DB: db, Invitations: inv, Notifications: notes},
		Rdb:       rdb,
		Config:    cfg,
	}

	owner := &domain.User{Fullname: "Olga", Email: "owner@test.com", PasswordHash: "x", AccountType: domain.AccountTeamMember, IsTeamOwner: true}
	require.NoError(t, db.Create(owner).Error)
	team := &domain.Team{Name: "Rockets", OwnerID: owner.UserID}
	require.NoError(t, db.Create(team).Error)
	require.NoError(t, db.Model(owner).Update("team_id", team.TeamID).Error)

	app := fiber.New()
	app.Use(session)
	app.Post("/login/:email", func(c *fiber.Ctx) error {
		var u domain.User
		if err := db.Where("email = ?", c.Params("email")).First(&u).Error; err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return middleware.IssueSession(c, rdb, cfg, middleware.SessionUserFor(&u))
	})
	app.Get("/validate", h.Validate)
	auth := app.Group("", middleware.RequireAuth())
	auth.Post("/create-invite", middleware.AuthorizeTeam(middleware.PermInviteMembers), h.CreateInvite)
	auth.Get("/view-invites", middleware.AuthorizeTeam(middleware.PermInviteMembers), h.ViewInvites)
	auth.Delete("/revoke-invite", middleware.AuthorizeTeam(middleware.PermInviteMembers), h.RevokeInvite)
	auth.Post("/process-content-migration", h.ProcessMigration)
	auth.Put("/process-content-migration", h.ConfirmMigration)
	auth.Get("/whoami", func(c *fiber.Ctx) error {
		id, _ := middleware.CurrentIdentity(c)
		return c.JSON(fiber.Map{"team_id": id.TeamID, "account_type": id.AccountType})
	})
	return &harness{app: app, db: db, team: team}
}

func (h *harness) login(t *testing.T, email string) string {
	resp, err := h.app.Test(httptest.NewRequest("POST", "/login/"+email, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return sessionCookie(t, resp.Header.Values("Set-Cookie"))
}

func sessionCookie(t *testing.T, headers []string) string {
	for _, h := range headers {
		if strings.HasPrefix(h, middleware.SessionCookieName+"=") {
			return strings.SplitN(h, ";", 2)[0]
		}
	}
	t.Fatalf("no session cookie in %v", headers)
	return ""
}

func (h *harness) do(t *testing.T, cookie, method, path string, body interface{}) (int, map[string]interface{}, []string) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out, resp.Header.Values("Set-Cookie")
}

func (h *harness) invite(t *testing.T, email string) string {
	status, out, _ := h.do(t, h.login(t, "owner@test.com"), "POST", "/create-invite", map[string]string{"email": email})
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(data["invite_link"].(string), "https://app.test/join?code="))
	return data["invitation"].(map[string]interface{})["invite_code"].(string)
}

func errorDetails(out map[string]interface{}) map[string]interface{} {
	e, _ := out["error"].(map[string]interface{})
	d, _ := e["details"].(map[string]interface{})
	return d
}

func TestValidate(t *testing.T) {
	h := setupInviteApp(t)
	code := h.invite(t, "new@test.com")
	require.NoError(t, h.db.Create(&domain.Invitation{InviteCode: "stale", TeamID: h.team.TeamID, Email: "x@test.com", InvitedBy: h.team.OwnerID, ExpiresAt: time.Now().Add(-time.Minute)}).Error)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing", "", fiber.StatusBadRequest},
		{"unknown", "?code=nope", fiber.StatusNotFound},
		{"expired", "?code=stale", fiber.StatusGone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out, _ := h.do(t, "", "GET", "/validate"+tt.query, nil)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, false, errorDetails(out)["valid"])
		})
	}

	status, out, _ := h.do(t, "", "GET", "/validate?code="+code, nil)
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	invite := data["invite"].(map[string]interface{})
	assert.Equal(t, "Rockets", invite["teamName"])
	assert.Equal(t, h.team.TeamID.String(), invite["teamId"])
}

func TestJoin_WithContentNeedsConfirmation(t *testing.T) {
	h := setupInviteApp(t)
	u := &domain.User{Fullname: "Ivy", Email: "ivy@test.com", PasswordHash: "x"}
	require.NoError(t, h.db.Create(u).Error)
	require.NoError(t, h.db.Create(&domain.Project{Name: "mine", OwnerID: u.UserID}).Error)
	require.NoError(t, h.db.Create(&domain.TodoList{Name: "keep", OwnerID: u.UserID}).Error)
	code := h.invite(t, "Ivy@Test.com")
	cookie := h.login(t, "ivy@test.com")
	body := map[string]interface{}{"teamId": h.team.TeamID.String(), "inviteCode": code}

	status, out, _ := h.do(t, cookie, "POST", "/process-content-migration", body)
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["hasContent"])
	counts := data["contentCounts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["projects"])
	assert.Equal(t, float64(1), counts["todoLists"])
	var n int64
	h.db.Model(&domain.Project{}).Count(&n)
	assert.Equal(t, int64(1), n, "audit must not mutate")

	status, _, _ = h.do(t, cookie, "PUT", "/process-content-migration", body)
	assert.Equal(t, fiber.StatusBadRequest, status)

	body["confirmMigration"] = true
	status, out, cookies := h.do(t, cookie, "PUT", "/process-content-migration", body)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, out["data"].(map[string]interface{})["success"])

	fresh := sessionCookie(t, cookies)
	status, out, _ = h.do(t, fresh, "GET", "/whoami", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, h.team.TeamID.String(), out["team_id"])
	assert.Equal(t, domain.AccountTeamMember, out["account_type"])

	h.db.Model(&domain.Project{}).Count(&n)
	assert.Zero(t, n)
	h.db.Model(&domain.TodoList{}).Count(&n)
	assert.Equal(t, int64(1), n)
	h.db.Model(&domain.Invitation{}).Count(&n)
	assert.Zero(t, n)
}

func TestJoin_EndsEverySessionOfTheJoiner(t *testing.T) {
	h := setupInviteApp(t)
	require.NoError(t, h.db.Create(&domain.User{Fullname: "Ivy", Email: "ivy@test.com", PasswordHash: "x"}).Error)
	code := h.invite(t, "ivy@test.com")
	laptop := h.login(t, "ivy@test.com")
	phone := h.login(t, "ivy@test.com")
	bystander := h.login(t, "owner@test.com")

	status, _, cookies := h.do(t, laptop, "POST", "/process-content-migration",
		map[string]string{"teamId": h.team.TeamID.String(), "inviteCode": code})
	require.Equal(t, fiber.StatusOK, status)
	fresh := sessionCookie(t, cookies)

	// A second device must not keep acting as a single account.
	for _, stale := range []string{laptop, phone} {
		status, _, _ = h.do(t, stale, "GET", "/whoami", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
	status, out, _ := h.do(t, fresh, "GET", "/whoami", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, h.team.TeamID.String(), out["team_id"])
	assert.Equal(t, domain.AccountTeamMember, out["account_type"])

	status, _, _ = h.do(t, bystander, "GET", "/whoami", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestJoin_EmptyAccountJoinsImmediately(t *testing.T) {
	h := setupInviteApp(t)
	require.NoError(t, h.db.Create(&domain.User{Fullname: "Ivy", Email: "ivy@test.com", PasswordHash: "x"}).Error)
	code := h.invite(t, "ivy@test.com")

	status, out, cookies := h.do(t, h.login(t, "ivy@test.com"), "POST", "/process-content-migration",
		map[string]string{"teamId": h.team.TeamID.String(), "inviteCode": code})
	require.Equal(t, fiber.StatusOK, status)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["success"])
	assert.Equal(t, false, data["hasContent"])
	assert.NotEmpty(t, sessionCookie(t, cookies))
}

func TestJoin_Rejections(t *testing.T) {
	h := setupInviteApp(t)
	require.NoError(t, h.db.Create(&domain.User{Fullname: "Ivy", Email: "ivy@test.com", PasswordHash: "x"}).Error)
	require.NoError(t, h.db.Create(&domain.User{Fullname: "Eve", Email: "eve@test.com", PasswordHash: "x"}).Error)
	code := h.invite(t, "ivy@test.com")
	eve := h.login(t, "eve@test.com")

	status, _, _ := h.do(t, "", "POST", "/process-content-migration", map[string]string{"teamId": h.team.TeamID.String(), "inviteCode": code})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _, _ = h.do(t, eve, "POST", "/process-content-migration", map[string]string{"teamId": "not-a-uuid", "inviteCode": code})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _, _ = h.do(t, eve, "POST", "/process-content-migration", map[string]string{"teamId": h.team.TeamID.String(), "inviteCode": code})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _, _ = h.do(t, eve, "POST", "/create-invite", map[string]string{"email": "z@test.com"})
	assert.Equal(t, fiber.StatusForbidden, status)

	var n int64
	h.db.Model(&domain.Invitation{}).Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestViewAndRevokeInvites(t *testing.T) {
	h := setupInviteApp(t)
	h.invite(t, "a@test.com")
	owner := h.login(t, "owner@test.com")

	status, _, _ := h.do(t, owner, "POST", "/create-invite", map[string]string{"email": "a@test.com"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, out, _ := h.do(t, owner, "GET", "/view-invites", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, out["data"].(map[string]interface{})["invitations"], 1)

	status, _, _ = h.do(t, owner, "DELETE", "/revoke-invite", map[string]string{"email": "a@test.com"})
	require.Equal(t, fiber.StatusOK, status)
	status, _, _ = h.do(t, owner, "DELETE", "/revoke-invite", map[string]string{"email": "a@test.com"})
	assert.Equal(t, fiber.StatusNotFound, status)
}
