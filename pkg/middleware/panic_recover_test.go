package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicRecoverMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(common.TraceIdKey, "trace-1")
		return c.Next()
	})
	app.Use(NewPanicRecoverMiddleware(logger).Middleware())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("fine") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"internal error"}`, string(body))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "kaboom", entry.Data["panic"])
	assert.Equal(t, "trace-1", entry.Data["trace_id"])
	assert.Contains(t, entry.Data, "stack")

	resp, err = app.Test(httptest.NewRequest("GET", "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
