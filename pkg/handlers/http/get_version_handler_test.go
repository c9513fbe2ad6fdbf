package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/version", NewGetVersionHandler(logrus.New()).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/version", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, version.AppName, body["app_name"])
	assert.Equal(t, version.Version, body["version"])
	assert.Contains(t, body, "started_at")
	assert.Contains(t, body, "uptime")
}

func TestGetVersionHandler_Uptime(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := &getVersionHandler{
		logger:    logrus.New(),
		startedAt: start,
		now:       func() time.Time { return start.Add(90*time.Minute + 400*time.Millisecond) },
	}
	app := fiber.New()
	app.Get("/version", h.Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/version", nil), -1)
	require.NoError(t, err)
	body := decode(t, resp.Body)
	assert.Equal(t, "1h30m0s", body["uptime"])
}
