package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type listBlocksHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewListBlocksHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &listBlocksHandler{
		logger: logger,
		engine: e,
	}
}

func (h *listBlocksHandler) Handle(c *fiber.Ctx) error {
	blocks := h.engine.ListBlocks(c.Context())
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"blocks": blocks, "total": len(blocks)})
}
