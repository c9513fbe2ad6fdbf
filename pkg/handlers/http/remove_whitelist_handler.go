package http

import (
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type removeWhitelistHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewRemoveWhitelistHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &removeWhitelistHandler{
		logger: logger,
		engine: e,
	}
}

func (h *removeWhitelistHandler) Handle(c *fiber.Ctx) error {
	cidr := unescape(c.Params("ip"))
	if mask := c.Query("mask"); mask != "" {
		cidr += "/" + mask
	}
	if err := h.engine.RemoveWhitelist(c.Context(), cidr, actor(c)); err != nil {
		return handleError(c, h.logger, err, "failed to remove whitelist entry")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
