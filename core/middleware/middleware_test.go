package middleware_test

import (
	"net/http/httptest"
	"testing"

	"data-loader/core/middleware/auth"
	"data-loader/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(key string) *fiber.App {
	app := fiber.New()
	app.Use(rayid.New())
	app.Use(auth.New(auth.Config{ApiKey: key}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(rayid.LocalsKey).(string))
	})
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		value  string
		want   int
	}{
		{"HeaderKey", "secret", auth.Header, "secret", fiber.StatusOK},
		{"Bearer", "secret", fiber.HeaderAuthorization, "Bearer secret", fiber.StatusOK},
		{"WrongKey", "secret", auth.Header, "nope", fiber.StatusUnauthorized},
		{"NoKey", "secret", "", "", fiber.StatusUnauthorized},
		{"NothingConfigured", "", auth.Header, "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := newApp(tt.key).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRayID(t *testing.T) {
	app := newApp("k")

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(auth.Header, "k")
	resp, err := app.Test(req)
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(rayid.Header))
	assert.NoError(t, err)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(auth.Header, "k")
	req.Header.Set(rayid.Header, "given-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "given-id", resp.Header.Get(rayid.Header))
}
