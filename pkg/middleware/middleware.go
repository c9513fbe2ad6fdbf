package middleware

import "github.com/gofiber/fiber/v2"

type Middleware interface {
	Middleware() fiber.Handler
}

// Transport holds the middlewares the router mounts. AdminAuthMiddleware is
// nil when the admin API runs without a secret.
type Transport struct {
	PanicRecoverMiddleware Middleware
	TraceMiddleware        Middleware
	CORSMiddleware         Middleware
	AdminAuthMiddleware    Middleware
}

// Global returns the handlers mounted on every route, in order.
func (t *Transport) Global() []interface{} {
	var handlers []interface{}
	for _, m := range []Middleware{t.PanicRecoverMiddleware, t.TraceMiddleware, t.CORSMiddleware} {
		if m != nil {
			handlers = append(handlers, m.Middleware())
		}
	}
	return handlers
}
