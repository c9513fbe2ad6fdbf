package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/config"
	"github.com/NeuralTrust/IPGuard/pkg/dependency_container"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/NeuralTrust/IPGuard/pkg/server"
	"github.com/NeuralTrust/IPGuard/pkg/server/router"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API, the forward-auth gate and the maintenance scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	prometheus.Initialize(cfg.Metrics)

	db, err := openDB()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger.Logger,
		DB:     db,
	})
	if err != nil {
		return err
	}
	defer container.Close()

	config.Watch(func(next risk.Settings) error {
		return container.Engine.UpdateSettings(ctx, next)
	}, func(err error) {
		logger.WithError(err).Error("config change rejected, keeping current engine settings")
	})

	container.Engine.Start(ctx, cfg.Engine.Workers)
	defer container.Engine.Close()

	if container.Feeds != nil {
		go func() {
			if err := container.Engine.RunMaintenance(ctx, maintenance.JobRefreshFeeds); err != nil {
				logger.WithError(err).Warn("initial threat feed refresh failed")
			}
		}()
	}

	if container.RedisListener != nil {
		go container.RedisListener.Listen(ctx, event.ClusterChannel)
	}

	srv := server.NewAdminServer(server.AdminServerDI{
		Config: cfg,
		Logger: logger.Logger,
		Routers: []router.ServerRouter{
			router.NewAdminRouter(container.MiddlewareTransport, container.HandlerTransport),
			router.NewGateRouter(container.GateMiddleware),
		},
		HealthChecks: container.HealthChecks,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- srv.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			logger.WithError(err).Error("server shutdown failed")
		}
	case <-time.After(shutdownTimeout):
		return errors.New("server shutdown timed out")
	}
	logger.Info("server exited")
	return nil
}
