package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// IP
	AnalyzeIPHandler      Handler
	RecordActivityHandler Handler
	IPStatusHandler       Handler
	BlockIPHandler        Handler
	UnblockIPHandler      Handler

	// Blocks
	ListBlocksHandler Handler
	HistoryHandler    Handler

	// Whitelist
	ListWhitelistHandler   Handler
	AddWhitelistHandler    Handler
	RemoveWhitelistHandler Handler

	// Engine
	GetStatusHandler      Handler
	RunMaintenanceHandler Handler
	GetSettingsHandler    Handler
	UpdateSettingsHandler Handler
	GetVersionHandler     Handler
}
