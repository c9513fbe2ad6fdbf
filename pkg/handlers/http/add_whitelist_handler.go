package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type addWhitelistHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewAddWhitelistHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &addWhitelistHandler{
		logger: logger,
		engine: e,
	}
}

func (h *addWhitelistHandler) Handle(c *fiber.Ctx) error {
	var req request.WhitelistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	item, err := h.engine.Whitelist(c.Context(), req.CIDR, req.Note, actor(c))
	if err != nil {
		return handleError(c, h.logger, err, "failed to add whitelist entry")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}
