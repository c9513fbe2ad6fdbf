package middleware

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type traceMiddleware struct{}

// NewTraceMiddleware tags each request with a trace id, reusing the one the
// caller sent when present.
func NewTraceMiddleware() Middleware {
	return &traceMiddleware{}
}

func (m *traceMiddleware) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Get(common.TraceIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		ctx.Locals(common.TraceIdKey, id)
		ctx.Set(common.TraceIDHeader, id)

		c := context.WithValue(ctx.UserContext(), common.TraceIdKey, id)
		ctx.SetUserContext(c)
		return ctx.Next()
	}
}
