package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

type historyHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewHistoryHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &historyHandler{
		logger: logger,
		engine: e,
	}
}

func (h *historyHandler) Handle(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 1000"})
	}
	entries, err := h.engine.History(c.Context(), limit)
	if err != nil {
		return handleError(c, h.logger, err, "failed to read blocking history")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"history": entries, "total": len(entries)})
}
