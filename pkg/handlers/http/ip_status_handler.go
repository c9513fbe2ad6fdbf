package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ipStatusHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewIPStatusHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &ipStatusHandler{
		logger: logger,
		engine: e,
	}
}

func (h *ipStatusHandler) Handle(c *fiber.Ctx) error {
	status, err := h.engine.IPStatus(c.Context(), unescape(c.Params("ip")))
	if err != nil {
		return handleError(c, h.logger, err, "failed to get ip status")
	}
	return c.Status(fiber.StatusOK).JSON(status)
}
