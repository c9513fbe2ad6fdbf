package router

import (
	"github.com/NeuralTrust/IPGuard/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

// VerifyPath is polled by reverse proxies (nginx auth_request, traefik
// forwardAuth) before they forward a request.
const VerifyPath = "/auth/verify"

type gateRouter struct {
	gate middleware.Middleware
}

func NewGateRouter(gate middleware.Middleware) ServerRouter {
	return &gateRouter{gate: gate}
}

func (r *gateRouter) BuildRoutes(router *fiber.App) error {
	router.All(VerifyPath, r.gate.Middleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return nil
}
