package server

import (
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/config"
	"github.com/NeuralTrust/IPGuard/pkg/server/router"
	"github.com/sirupsen/logrus"
)

type (
	AdminServerDI struct {
		Config       *config.Config
		Logger       *logrus.Logger
		Routers      []router.ServerRouter
		HealthChecks map[string]HealthCheck
	}
	AdminServer struct {
		*BaseServer
		routers      []router.ServerRouter
		healthChecks map[string]HealthCheck
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	s := &AdminServer{
		BaseServer:   NewBaseServer(di.Config, di.Logger),
		routers:      di.Routers,
		healthChecks: di.HealthChecks,
	}
	s.setupHealthCheck(s.healthChecks)
	s.setupMetricsEndpoint()
	s.WithRouters(s.routers...)
	return s
}

func (s *AdminServer) Run() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)
	s.Logger.WithField("addr", addr).Info("starting admin server")
	return s.Router.Listen(addr)
}

func (s *AdminServer) Shutdown() error {
	return s.Router.Shutdown()
}
