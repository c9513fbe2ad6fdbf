package http

import (
	"encoding/json"

	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type getSettingsHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewGetSettingsHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &getSettingsHandler{
		logger: logger,
		engine: e,
	}
}

func (h *getSettingsHandler) Handle(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.engine.Settings())
}

type updateSettingsHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewUpdateSettingsHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &updateSettingsHandler{
		logger: logger,
		engine: e,
	}
}

// Handle merges the body over the current settings, so a partial document
// only changes the fields it names.
func (h *updateSettingsHandler) Handle(c *fiber.Ctx) error {
	next := h.engine.Settings()
	if err := json.Unmarshal(c.Body(), &next); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.engine.UpdateSettings(c.Context(), next); err != nil {
		return handleError(c, h.logger, err, "failed to update settings")
	}
	h.logger.WithField("actor", actor(c)).Info("settings updated through the api")
	return c.Status(fiber.StatusOK).JSON(next)
}
