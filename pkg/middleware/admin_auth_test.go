package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/infra/auth/jwt"
	"github.com/NeuralTrust/IPGuard/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdminApp(manager jwt.Manager) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewAdminAuthMiddleware(logrus.New(), manager).Middleware())
	app.Get("/status", func(c *fiber.Ctx) error {
		sub, _ := c.Locals(common.AdminSubject).(string)
		return c.SendString(sub)
	})
	return app
}

func TestAdminAuthMiddleware(t *testing.T) {
	manager := jwt.NewJwtManager("test-secret", 0)
	token, err := manager.CreateToken("ops@example.com")
	require.NoError(t, err)

	foreign, err := jwt.NewJwtManager("other-secret", 0).CreateToken("intruder")
	require.NoError(t, err)

	expired, err := jwt.NewJwtManager("test-secret", -time.Minute).CreateToken("ops@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: fiber.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", want: fiber.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, want: fiber.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, want: fiber.StatusUnauthorized},
		{name: "lowercase scheme", header: "bearer " + token, want: fiber.StatusOK},
		{name: "valid token", header: "Bearer " + token, want: fiber.StatusOK},
	}
	app := newAdminApp(manager)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
