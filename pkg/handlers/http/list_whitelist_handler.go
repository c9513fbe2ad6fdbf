package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listWhitelistHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewListWhitelistHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &listWhitelistHandler{
		logger: logger,
		engine: e,
	}
}

func (h *listWhitelistHandler) Handle(c *fiber.Ctx) error {
	items := h.engine.ListWhitelist()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"whitelist": items, "total": len(items)})
}
