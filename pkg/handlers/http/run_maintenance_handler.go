package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type runMaintenanceHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewRunMaintenanceHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &runMaintenanceHandler{
		logger: logger,
		engine: e,
	}
}

func (h *runMaintenanceHandler) Handle(c *fiber.Ctx) error {
	job := c.Params("job")
	h.logger.WithFields(logrus.Fields{"job": job, "actor": actor(c)}).Info("maintenance job requested")
	if err := h.engine.RunMaintenance(c.Context(), job); err != nil {
		return handleError(c, h.logger, err, "maintenance job failed")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"job": job, "status": "ok"})
}
