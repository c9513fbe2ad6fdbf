package router

import (
	handlers "github.com/NeuralTrust/IPGuard/pkg/handlers/http"
	"github.com/NeuralTrust/IPGuard/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

type adminRouter struct {
	middlewareTransport *middleware.Transport
	handlerTransport    handlers.HandlerTransport
}

func NewAdminRouter(
	middlewareTransport *middleware.Transport,
	handlerTransport handlers.HandlerTransport,
) ServerRouter {
	return &adminRouter{
		middlewareTransport: middlewareTransport,
		handlerTransport:    handlerTransport,
	}
}

func (r *adminRouter) BuildRoutes(router *fiber.App) error {
	h := r.handlerTransport

	if global := r.middlewareTransport.Global(); len(global) > 0 {
		router.Use(global...)
	}

	router.Get("/version", h.GetVersionHandler.Handle)

	v1 := router.Group("/api/v1")
	{
		if r.middlewareTransport.AdminAuthMiddleware != nil {
			v1.Use(r.middlewareTransport.AdminAuthMiddleware.Middleware())
		}

		ips := v1.Group("/ips/:ip")
		{
			ips.Post("/analyze", h.AnalyzeIPHandler.Handle)
			ips.Post("/activity", h.RecordActivityHandler.Handle)
			ips.Get("/blocked", h.IPStatusHandler.Handle)
			ips.Post("/block", h.BlockIPHandler.Handle)
			ips.Delete("/block", h.UnblockIPHandler.Handle)
		}

		v1.Get("/blocks", h.ListBlocksHandler.Handle)
		v1.Get("/history", h.HistoryHandler.Handle)

		whitelist := v1.Group("/whitelist")
		{
			whitelist.Get("", h.ListWhitelistHandler.Handle)
			whitelist.Post("", h.AddWhitelistHandler.Handle)
			whitelist.Delete("/:ip", h.RemoveWhitelistHandler.Handle)
		}

		v1.Get("/status", h.GetStatusHandler.Handle)
		v1.Post("/maintenance/:job", h.RunMaintenanceHandler.Handle)
		v1.Get("/settings", h.GetSettingsHandler.Handle)
		v1.Put("/settings", h.UpdateSettingsHandler.Handle)
		v1.Get("/version", h.GetVersionHandler.Handle)
	}
	return nil
}
