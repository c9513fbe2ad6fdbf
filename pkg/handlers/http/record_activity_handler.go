package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/handlers/http/request"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type recordActivityHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewRecordActivityHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &recordActivityHandler{
		logger: logger,
		engine: e,
	}
}

func (h *recordActivityHandler) Handle(c *fiber.Ctx) error {
	ip, err := ipParam(c)
	if err != nil {
		return handleError(c, h.logger, err, "invalid ip")
	}
	var req request.RecordActivityRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	h.engine.RecordActivity(ip, req.Event())
	return c.SendStatus(fiber.StatusAccepted)
}
