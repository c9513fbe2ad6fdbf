package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type blockIPHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewBlockIPHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &blockIPHandler{
		logger: logger,
		engine: e,
	}
}

func (h *blockIPHandler) Handle(c *fiber.Ctx) error {
	ip, err := ipParam(c)
	if err != nil {
		return handleError(c, h.logger, err, "invalid ip")
	}
	var req request.BlockIPRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	manual, _ := req.ManualBlock(actor(c))

	rec, err := h.engine.BlockIP(c.Context(), ip, manual)
	if err != nil {
		return handleError(c, h.logger, err, "failed to block ip")
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}
