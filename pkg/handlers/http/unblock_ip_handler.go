package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type unblockIPHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewUnblockIPHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &unblockIPHandler{
		logger: logger,
		engine: e,
	}
}

// Handle is idempotent: releasing an IP that is not blocked answers 200
// with unblocked=false.
func (h *unblockIPHandler) Handle(c *fiber.Ctx) error {
	ip, err := ipParam(c)
	if err != nil {
		return handleError(c, h.logger, err, "invalid ip")
	}
	changed, err := h.engine.UnblockIP(c.Context(), ip, c.Query("reason"), actor(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to unblock ip")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ip": ip, "unblocked": changed})
}
