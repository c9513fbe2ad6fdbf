package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsApp(opts CORSOptions) *fiber.App {
	app := fiber.New()
	app.Use(NewCORSGlobalMiddleware(opts).Middleware())
	app.Get("/api/v1/status", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestCORS_Preflight(t *testing.T) {
	app := corsApp(CORSOptions{
		AllowOrigins: []string{"https://dash.example.com"},
		AllowMethods: []string{"GET", "DELETE"},
		MaxAge:       10 * time.Minute,
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://Dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://Dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, DELETE", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, defaultAllowedHeaders, resp.Header.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "600", resp.Header.Get("Access-Control-Max-Age"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	app := corsApp(CORSOptions{AllowOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_WildcardWithCredentialsEchoesOrigin(t *testing.T) {
	app := corsApp(CORSOptions{AllowOrigins: []string{"*"}, AllowCredentials: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
