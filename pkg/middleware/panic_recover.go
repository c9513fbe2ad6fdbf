package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type panicRecoverMiddleware struct {
	logger    *logrus.Logger
	withStack bool
}

// NewPanicRecoverMiddleware turns a panicking handler into a 500. The stack
// is only logged at debug level.
func NewPanicRecoverMiddleware(logger *logrus.Logger) Middleware {
	return &panicRecoverMiddleware{
		logger:    logger,
		withStack: logger.IsLevelEnabled(logrus.DebugLevel),
	}
}

func (m *panicRecoverMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			route := c.Route().Path
			prometheus.HTTPPanics.WithLabelValues(route).Inc()

			fields := logrus.Fields{
				"panic":  fmt.Sprint(r),
				"method": c.Method(),
				"route":  route,
			}
			if id, ok := c.Locals(common.TraceIdKey).(string); ok {
				fields["trace_id"] = id
			}
			if ip, ok := c.Locals(common.ClientIPKey).(string); ok {
				fields["ip"] = ip
			}
			if m.withStack {
				fields["stack"] = string(debug.Stack())
			}
			m.logger.WithFields(fields).Error("recovered from handler panic")

			err = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal error",
			})
		}()
		return c.Next()
	}
}
