package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/sync", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAuth(t *testing.T) {
	app := newApp(Config{
		ApiKey: "secret",
		Next:   func(c *fiber.Ctx) bool { return c.Path() == "/health" },
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"valid header", "/sync", "secret", fiber.StatusOK},
		{"valid query", "/sync?api_key=secret", "", fiber.StatusOK},
		{"missing key", "/sync", "", fiber.StatusUnauthorized},
		{"wrong key", "/sync", "nope", fiber.StatusUnauthorized},
		{"skipped path", "/health", "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuth_EmptyKeyRejectsEverything(t *testing.T) {
	app := newApp(Config{})

	resp, err := app.Test(httptest.NewRequest("GET", "/sync", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
