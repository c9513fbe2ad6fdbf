package http

import (
	"errors"
	"net/url"

	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const defaultActor = "admin"

// actor is the authenticated admin subject, or a generic name when the API
// runs without authentication.
func actor(c *fiber.Ctx) string {
	if sub, ok := c.Locals(common.AdminSubject).(string); ok && sub != "" {
		return sub
	}
	return defaultActor
}

func ipParam(c *fiber.Ctx) (string, error) {
	return risk.NormalizeIP(unescape(c.Params("ip")))
}

// unescape decodes a path parameter so CIDRs can be sent as 10.0.0.0%2F8.
func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, risk.ErrInvalidIP), errors.Is(err, risk.ErrInvalidSettings):
		return fiber.StatusBadRequest
	case errors.Is(err, risk.ErrNotWhitelisted), errors.Is(err, maintenance.ErrUnknownJob):
		return fiber.StatusNotFound
	case errors.Is(err, risk.ErrWhitelisted), errors.Is(err, blocking.ErrStaticWhitelist):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func handleError(c *fiber.Ctx, logger *logrus.Logger, err error, msg string) error {
	status := errorStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.WithError(err).Error(msg)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
