package http

import (
	"errors"

	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/handlers/http/request"
	"github.com/NeuralTrust/IPGuard/pkg/handlers/http/response"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type analyzeIPHandler struct {
	logger *logrus.Logger
	engine engine.Engine
}

func NewAnalyzeIPHandler(logger *logrus.Logger, e engine.Engine) Handler {
	return &analyzeIPHandler{
		logger: logger,
		engine: e,
	}
}

func (h *analyzeIPHandler) Handle(c *fiber.Ctx) error {
	ip, err := ipParam(c)
	if err != nil {
		return handleError(c, h.logger, err, "invalid ip")
	}

	var req request.AnalyzeIPRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	rc, err := req.RiskContext()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if rc.UserAgent == "" {
		rc.UserAgent = c.Get(fiber.HeaderUserAgent)
	}

	d, err := h.engine.AnalyzeIP(c.Context(), ip, rc)
	if err != nil {
		if errors.Is(err, risk.ErrEnforcementFailed) {
			h.logger.WithError(err).WithField("ip", ip).Error("analysis decided to block but enforcement failed")
			return c.Status(fiber.StatusOK).JSON(response.AnalyzeIPOutput{Decision: d, EnforcementError: err.Error()})
		}
		return handleError(c, h.logger, err, "failed to analyze ip")
	}
	return c.Status(fiber.StatusOK).JSON(response.AnalyzeIPOutput{Decision: d})
}
