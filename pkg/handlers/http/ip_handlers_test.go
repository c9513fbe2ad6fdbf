package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	enginemocks "github.com/NeuralTrust/IPGuard/pkg/app/engine/mocks"
	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func newJSONRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func TestAnalyzeIPHandler_Success(t *testing.T) {
	logger := logrus.New()
	e := enginemocks.NewEngine(t)
	handler := NewAnalyzeIPHandler(logger, e)

	app := fiber.New()
	app.Post("/api/v1/ips/:ip/analyze", handler.Handle)

	e.EXPECT().AnalyzeIP(mock.Anything, "203.0.113.5", mock.MatchedBy(func(rc risk.Context) bool {
		return rc.IsFirstVisit && rc.Hints["tenant"] == "acme"
	})).Return(risk.Decision{
		IP:        "203.0.113.5",
		Action:    risk.ActionBlock,
		RiskScore: 90,
		Source:    risk.SourceRules,
		State:     risk.StateBlocked,
	}, nil)

	req := newJSONRequest(t, "POST", "/api/v1/ips/203.0.113.5/analyze", map[string]interface{}{
		"isFirstVisit": true,
		"tenant":       "acme",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, "block", body["action"])
	assert.EqualValues(t, 90, body["risk_score"])
	assert.NotContains(t, body, "enforcement_error")
}

func TestAnalyzeIPHandler_InvalidIP(t *testing.T) {
	e := enginemocks.NewEngine(t)
	handler := NewAnalyzeIPHandler(logrus.New(), e)

	app := fiber.New()
	app.Post("/api/v1/ips/:ip/analyze", handler.Handle)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/ips/not-an-ip/analyze", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestAnalyzeIPHandler_EnforcementFailure(t *testing.T) {
	e := enginemocks.NewEngine(t)
	handler := NewAnalyzeIPHandler(logrus.New(), e)

	app := fiber.New()
	app.Post("/api/v1/ips/:ip/analyze", handler.Handle)

	e.EXPECT().AnalyzeIP(mock.Anything, "198.51.100.7", mock.Anything).Return(risk.Decision{
		IP:     "198.51.100.7",
		Action: risk.ActionBlock,
	}, fmt.Errorf("persist block: %w", risk.ErrEnforcementFailed))

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/ips/198.51.100.7/analyze", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, "block", body["action"])
	assert.Contains(t, body["enforcement_error"], "persist block")
}

func TestRecordActivityHandler(t *testing.T) {
	e := enginemocks.NewEngine(t)
	handler := NewRecordActivityHandler(logrus.New(), e)

	app := fiber.New()
	app.Post("/api/v1/ips/:ip/activity", handler.Handle)

	e.EXPECT().RecordActivity("192.0.2.44", mock.MatchedBy(func(evt activity.Event) bool {
		return evt.Failed && evt.Endpoint == "/login" && !evt.Timestamp.IsZero()
	})).Return()

	req := newJSONRequest(t, "POST", "/api/v1/ips/192.0.2.44/activity", map[string]interface{}{
		"failed":   true,
		"endpoint": "/login",
		"method":   "POST",
	})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
}

func TestIPStatusHandler(t *testing.T) {
	e := enginemocks.NewEngine(t)
	handler := NewIPStatusHandler(logrus.New(), e)

	app := fiber.New()
	app.Get("/api/v1/ips/:ip/blocked", handler.Handle)

	e.EXPECT().IPStatus(mock.Anything, "192.0.2.10").Return(engine.IPStatus{
		IP:      "192.0.2.10",
		Blocked: true,
		State:   risk.StateBlocked,
	}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/ips/192.0.2.10/blocked", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, true, body["blocked"])
}

func TestBlockIPHandler(t *testing.T) {
	t.Run("uses the authenticated subject as actor", func(t *testing.T) {
		e := enginemocks.NewEngine(t)
		handler := NewBlockIPHandler(logrus.New(), e)

		app := fiber.New()
		app.Post("/api/v1/ips/:ip/block", func(c *fiber.Ctx) error {
			c.Locals(common.AdminSubject, "ops@example.com")
			return handler.Handle(c)
		})

		e.EXPECT().BlockIP(mock.Anything, "203.0.113.9", engine.ManualBlock{
			Reason:   "abuse report",
			Duration: 30 * time.Minute,
			Actor:    "ops@example.com",
		}).Return(&block.Record{IP: "203.0.113.9", Reason: "abuse report", Active: true}, nil)

		req := newJSONRequest(t, "POST", "/api/v1/ips/203.0.113.9/block", map[string]interface{}{
			"reason":   "abuse report",
			"duration": "30m",
		})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("whitelisted ip conflicts", func(t *testing.T) {
		e := enginemocks.NewEngine(t)
		handler := NewBlockIPHandler(logrus.New(), e)

		app := fiber.New()
		app.Post("/api/v1/ips/:ip/block", handler.Handle)

		e.EXPECT().BlockIP(mock.Anything, "198.51.100.9", mock.Anything).Return(nil, risk.ErrWhitelisted)

		resp, err := app.Test(newJSONRequest(t, "POST", "/api/v1/ips/198.51.100.9/block", map[string]interface{}{}), -1)
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("bad duration", func(t *testing.T) {
		e := enginemocks.NewEngine(t)
		handler := NewBlockIPHandler(logrus.New(), e)

		app := fiber.New()
		app.Post("/api/v1/ips/:ip/block", handler.Handle)

		req := newJSONRequest(t, "POST", "/api/v1/ips/198.51.100.9/block", map[string]interface{}{"duration": "forever"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestUnblockIPHandler_Idempotent(t *testing.T) {
	e := enginemocks.NewEngine(t)
	handler := NewUnblockIPHandler(logrus.New(), e)

	app := fiber.New()
	app.Delete("/api/v1/ips/:ip/block", handler.Handle)

	e.EXPECT().UnblockIP(mock.Anything, "192.0.2.1", "false positive", defaultActor).Return(true, nil).Once()
	e.EXPECT().UnblockIP(mock.Anything, "192.0.2.1", "false positive", defaultActor).Return(false, nil).Once()

	for _, want := range []bool{true, false} {
		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/ips/192.0.2.1/block?reason=false%20positive", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, want, decode(t, resp.Body)["unblocked"])
	}
}
