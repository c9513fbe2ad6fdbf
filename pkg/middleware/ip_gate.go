package middleware

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Gate is the part of the engine the gate middleware needs.
type Gate interface {
	IsBlocked(ctx context.Context, ip string) bool
	RecordActivity(ip string, evt activity.Event)
}

type GateConfig struct {
	// TrustProxyHeaders reads the client address from forwarding headers.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	SkipPaths         []string
	// FailedStatusCodes mark a response as a failed attempt.
	FailedStatusCodes []int
}

const (
	originalURIHeader    = "X-Original-URI"
	originalMethodHeader = "X-Original-Method"
)

var defaultFailedStatusCodes = []int{fiber.StatusUnauthorized, fiber.StatusForbidden}

var proxyHeaders = []string{
	common.ForwardedForHeader,
	common.RealIPHeader,
	"True-Client-IP",
	"CF-Connecting-IP",
}

type ipGateMiddleware struct {
	logger *logrus.Logger
	gate   Gate
	cfg    GateConfig
	failed map[int]struct{}
}

// NewIPGateMiddleware rejects requests from blocked addresses with 403 and
// records every other request as activity once the response status is known.
func NewIPGateMiddleware(logger *logrus.Logger, gate Gate, cfg GateConfig) Middleware {
	codes := cfg.FailedStatusCodes
	if len(codes) == 0 {
		codes = defaultFailedStatusCodes
	}
	failed := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		failed[code] = struct{}{}
	}
	return &ipGateMiddleware{
		logger: logger,
		gate:   gate,
		cfg:    cfg,
		failed: failed,
	}
}

func (m *ipGateMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, p := range m.cfg.SkipPaths {
			if strings.HasPrefix(path, p) {
				return c.Next()
			}
		}

		ip := m.clientIP(c)
		if ip == "" {
			return c.Next()
		}
		c.Locals(common.ClientIPKey, ip)

		if m.gate.IsBlocked(c.UserContext(), ip) {
			m.logger.WithFields(logrus.Fields{
				"ip":   ip,
				"path": path,
			}).Debug("request from blocked ip rejected")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
		}

		nextErr := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := nextErr.(*fiber.Error); ok {
			status = fe.Code
		}
		_, failed := m.failed[status]
		endpoint, method := path, c.Method()
		if m.cfg.TrustProxyHeaders {
			// forward-auth requests describe the original request in headers
			if uri := c.Get(originalURIHeader); uri != "" {
				endpoint = uri
			}
			if orig := c.Get(originalMethodHeader); orig != "" {
				method = orig
			}
		}
		m.gate.RecordActivity(ip, activity.Event{
			Failed:     failed,
			UserAgent:  c.Get(fiber.HeaderUserAgent),
			Endpoint:   endpoint,
			Method:     method,
			StatusCode: status,
			Timestamp:  time.Now(),
		})
		return nextErr
	}
}

func (m *ipGateMiddleware) clientIP(c *fiber.Ctx) string {
	if m.cfg.TrustProxyHeaders {
		for _, header := range proxyHeaders {
			value := c.Get(header)
			if value == "" {
				continue
			}
			first := strings.TrimSpace(strings.Split(value, ",")[0])
			if addr, err := netip.ParseAddr(first); err == nil {
				return addr.Unmap().String()
			}
		}
	}
	addr, err := netip.ParseAddr(c.IP())
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}
