package request

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Name string `json:"name" validate:"required"`
}

func newApp() *fiber.App {
	app := fiber.New()
	app.Post("/bind", func(c *fiber.Ctx) error {
		var b body
		if ok, err := Bind(c, &b); !ok {
			return err
		}
		return c.SendString(b.Name)
	})
	app.Get("/me", func(c *fiber.Ctx) error {
		id, ok, err := Identity(c)
		if !ok {
			return err
		}
		return c.SendString(id.UserID.String())
	})
	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, ok, err := UUIDParam(c, "id")
		if !ok {
			return err
		}
		return c.SendString(id.String())
	})
	return app
}

func TestBind(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("POST", "/bind", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("POST", "/bind", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	errObj := out["error"].(map[string]interface{})
	assert.Equal(t, "name is required", errObj["message"])

	req = httptest.NewRequest("POST", "/bind", bytes.NewReader([]byte(`{"name":"ok"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(b))
}

func TestIdentityAndParam(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/things/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	id := uuid.New()
	resp, err = app.Test(httptest.NewRequest("GET", "/things/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
