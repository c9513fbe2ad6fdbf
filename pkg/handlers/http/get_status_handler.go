package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getStatusHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewGetStatusHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &getStatusHandler{
		logger: logger,
		engine: e,
	}
}

func (h *getStatusHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.engine.GetStatus(c.Context()))
}
