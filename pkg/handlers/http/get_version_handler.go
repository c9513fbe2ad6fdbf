package http

import (
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type versionResponse struct {
	version.Info
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

type getVersionHandler struct {
	logger    *logrus.Logger
	startedAt time.Time
	now       func() time.Time
}

// NewGetVersionHandler reports build information and how long this
// process has been serving.
func NewGetVersionHandler(logger *logrus.Logger) Handler {
	return &getVersionHandler{
		logger:    logger,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

func (h *getVersionHandler) Handle(c *fiber.Ctx) error {
	uptime := h.now().Sub(h.startedAt).Truncate(time.Second)
	return c.JSON(versionResponse{
		Info:      version.GetInfo(),
		StartedAt: h.startedAt.UTC(),
		Uptime:    uptime.String(),
	})
}
