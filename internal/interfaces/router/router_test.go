package router

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"swifttasks-backend/internal/config"
	"swifttasks-backend/internal/monitoring"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApp_WithoutDatabase(t *testing.T) {
	mr := miniredis.RunT(t)
	m, err := monitoring.New()
	require.NoError(t, err)
	app, db, rdb, err := CreateApp(&config.Config{Env: "test", RedisURL: "redis://" + mr.Addr()}, m)
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { rdb.Close() })
	assert.Nil(t, db)

	tests := []struct {
		path string
		want int
	}{
		{"/health/json", fiber.StatusOK},
		{"/health/errors", fiber.StatusOK},
		{"/reset", fiber.StatusForbidden},
		{"/api/v1/auth/me", fiber.StatusUnauthorized},
		{"/api/v1/projects/view-projects", fiber.StatusNotFound},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, tt.path)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "http_requests_total"))
}
