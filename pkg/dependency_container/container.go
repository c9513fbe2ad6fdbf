package dependency_container

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/analyzer"
	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/decision"
	"github.com/NeuralTrust/IPGuard/pkg/app/engine"
	"github.com/NeuralTrust/IPGuard/pkg/app/lifecycle"
	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/app/scoring"
	appSignals "github.com/NeuralTrust/IPGuard/pkg/app/signals"
	"github.com/NeuralTrust/IPGuard/pkg/config"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	handlers "github.com/NeuralTrust/IPGuard/pkg/handlers/http"
	"github.com/NeuralTrust/IPGuard/pkg/infra/auth/jwt"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/subscriber"
	"github.com/NeuralTrust/IPGuard/pkg/infra/database"
	"github.com/NeuralTrust/IPGuard/pkg/infra/geoip"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/notify"
	kafkaNotify "github.com/NeuralTrust/IPGuard/pkg/infra/notify/kafka"
	redisNotify "github.com/NeuralTrust/IPGuard/pkg/infra/notify/redis"
	providersFactory "github.com/NeuralTrust/IPGuard/pkg/infra/providers/factory"
	"github.com/NeuralTrust/IPGuard/pkg/infra/report"
	"github.com/NeuralTrust/IPGuard/pkg/infra/repository"
	"github.com/NeuralTrust/IPGuard/pkg/infra/reputation"
	"github.com/NeuralTrust/IPGuard/pkg/infra/worker"
	"github.com/NeuralTrust/IPGuard/pkg/middleware"
	"github.com/NeuralTrust/IPGuard/pkg/server"
	"github.com/NeuralTrust/IPGuard/pkg/version"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Container struct {
	InstanceID          string
	Cache               cache.Client
	Settings            *risk.SettingsStore
	Store               blocking.Store
	Engine              engine.Engine
	Feeds               *reputation.FeedSet
	HandlerTransport    handlers.HandlerTransport
	MiddlewareTransport *middleware.Transport
	GateMiddleware      middleware.Middleware
	RedisListener       cache.EventListener
	JWTManager          jwt.Manager
	HealthChecks        map[string]server.HealthCheck

	closers []func()
}

type ContainerDI struct {
	Cfg    *config.Config
	Logger *logrus.Logger
	DB     *database.DB
}

// NewContainer wires the engine and its HTTP surface. Without a database
// blocks live in memory; without Redis decisions are cached per instance
// and cluster events are not exchanged.
func NewContainer(di ContainerDI) (*Container, error) {
	cfg := di.Cfg
	logger := di.Logger
	c := &Container{
		InstanceID:   instanceID(cfg.Server.InstanceID),
		HealthChecks: make(map[string]server.HealthCheck),
	}

	settings, err := risk.NewSettingsStore(cfg.Engine.Settings)
	if err != nil {
		return nil, err
	}
	c.Settings = settings

	if cfg.Redis.Host != "" {
		cacheInstance, err := cache.NewClient(cache.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TLS:      cfg.Redis.TLS,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %v", err)
		}
		c.Cache = cacheInstance
		c.HealthChecks["redis"] = cacheInstance.Ping
		c.closers = append(c.closers, func() { _ = cacheInstance.RedisClient().Close() })
	} else {
		logger.Warn("redis is not configured, decisions are cached in memory and cluster sync is off")
	}

	// repository
	var repo block.Repository
	if di.DB != nil {
		repo = repository.NewBlockRepository(di.DB.DB)
		c.HealthChecks["database"] = di.DB.Ping
	} else {
		logger.Warn("database is not configured, blocks are kept in memory only")
		repo = repository.NewMemoryBlockRepository()
	}

	store, err := blocking.NewStore(repo, settings, cfg.Engine.Whitelist, logger)
	if err != nil {
		return nil, err
	}
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Load(loadCtx); err != nil {
		return nil, fmt.Errorf("failed to load block state: %w", err)
	}
	c.Store = store

	tracker := activity.NewTracker(settings)
	registry := lifecycle.NewRegistry()

	var decisions decision.Cache
	if c.Cache != nil {
		decisions = decision.NewRedisCache(c.Cache, logger)
	} else {
		decisions = decision.NewMemoryCache(cache.NewTTLMap(settings.Get().DecisionTTL))
	}

	httpClient := httpx.NewFastHTTPClient(
		httpx.WithTimeout(10*time.Second),
		httpx.WithUserAgent(version.AppName+"/"+version.Version),
	)

	// signals
	var geo signals.GeoProvider
	if cfg.GeoIP != (geoip.Config{}) {
		geoProvider, err := geoip.NewProvider(cfg.GeoIP, logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		geo = geoProvider
		c.closers = append(c.closers, func() { _ = geoProvider.Close() })
	}

	var (
		rep       signals.ReputationProvider
		repCache  maintenance.ReputationCache
		feedFresh maintenance.FeedRefresher
	)
	if cfg.Reputation.Enabled {
		rep, repCache, feedFresh = c.buildReputation(cfg.Reputation, httpClient, logger)
	}
	gatherer := appSignals.NewGatherer(geo, rep, tracker, settings, logger)

	// scoring
	scorer, err := buildScorer(cfg.LLM, httpClient, settings, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// notifications
	dispatcher, err := c.buildDispatcher(cfg.Notify, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, dispatcher.Close)

	var publisher cache.EventPublisher
	if c.Cache != nil {
		publisher = cache.NewRedisEventPublisher(c.Cache, event.ClusterChannel)
	} else {
		publisher = cache.NewNoopEventPublisher()
	}

	a := analyzer.NewAnalyzer(store, decisions, gatherer, scorer, registry, settings, dispatcher, logger)

	var sink maintenance.ReportSink = report.NewLogSink(logger)
	if cfg.Report.File != "" {
		fileSink, err := report.NewFileSink(cfg.Report)
		if err != nil {
			c.Close()
			return nil, err
		}
		sink = fileSink
		c.closers = append(c.closers, func() { _ = fileSink.Close() })
	}

	scheduler := maintenance.NewScheduler(maintenance.Deps{
		Store:      store,
		Tracker:    tracker,
		Registry:   registry,
		Reputation: repCache,
		Feeds:      feedFresh,
		Sink:       sink,
	}, cfg.Maintenance, logger)

	deps := engine.Deps{
		InstanceID: c.InstanceID,
		Analyzer:   a,
		Store:      store,
		Tracker:    tracker,
		Cache:      decisions,
		Registry:   registry,
		Settings:   settings,
		Pool:       worker.NewPool(logger, cfg.Engine.QueueSize),
		Scheduler:  scheduler,
		Publisher:  publisher,
		Notifier:   dispatcher,
		ScorerName: scorer.Name(),
		Logger:     logger,
	}
	if c.Feeds != nil {
		deps.Feeds = c.Feeds
	}
	c.Engine = engine.New(deps)

	// subscribers
	if c.Cache != nil {
		c.RedisListener = cache.NewRedisEventListener(logger, c.Cache)
		cache.RegisterEventSubscriber[event.BlockChangedEvent](
			c.RedisListener,
			subscriber.NewBlockChangedEventSubscriber(logger, c.InstanceID, store, decisions),
		)
		cache.RegisterEventSubscriber[event.WhitelistChangedEvent](
			c.RedisListener,
			subscriber.NewWhitelistChangedEventSubscriber(logger, c.InstanceID, store, decisions),
		)
	}

	// middleware
	c.MiddlewareTransport = &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		TraceMiddleware:        middleware.NewTraceMiddleware(),
	}
	if len(cfg.Server.CORS.AllowOrigins) > 0 {
		c.MiddlewareTransport.CORSMiddleware = middleware.NewCORSGlobalMiddleware(middleware.CORSOptions{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowMethods:     cfg.Server.CORS.AllowMethods,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
			ExposeHeaders:    cfg.Server.CORS.ExposeHeaders,
			MaxAge:           cfg.Server.CORS.MaxAge,
		})
	}
	if cfg.Server.SecretKey != "" {
		c.JWTManager = jwt.NewJwtManager(cfg.Server.SecretKey, cfg.Server.TokenTTL)
		c.MiddlewareTransport.AdminAuthMiddleware = middleware.NewAdminAuthMiddleware(logger, c.JWTManager)
	} else {
		logger.Warn("server.secret_key is empty, the admin API is not authenticated")
	}
	c.GateMiddleware = middleware.NewIPGateMiddleware(logger, c.Engine, middleware.GateConfig{
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	// Handler Transport
	c.HandlerTransport = handlers.HandlerTransport{
		AnalyzeIPHandler:       handlers.NewAnalyzeIPHandler(logger, c.Engine),
		RecordActivityHandler:  handlers.NewRecordActivityHandler(logger, c.Engine),
		IPStatusHandler:        handlers.NewIPStatusHandler(logger, c.Engine),
		BlockIPHandler:         handlers.NewBlockIPHandler(logger, c.Engine),
		UnblockIPHandler:       handlers.NewUnblockIPHandler(logger, c.Engine),
		ListBlocksHandler:      handlers.NewListBlocksHandler(logger, c.Engine),
		HistoryHandler:         handlers.NewHistoryHandler(logger, c.Engine),
		ListWhitelistHandler:   handlers.NewListWhitelistHandler(logger, c.Engine),
		AddWhitelistHandler:    handlers.NewAddWhitelistHandler(logger, c.Engine),
		RemoveWhitelistHandler: handlers.NewRemoveWhitelistHandler(logger, c.Engine),
		GetStatusHandler:       handlers.NewGetStatusHandler(logger, c.Engine),
		RunMaintenanceHandler:  handlers.NewRunMaintenanceHandler(logger, c.Engine),
		GetSettingsHandler:     handlers.NewGetSettingsHandler(logger, c.Engine),
		UpdateSettingsHandler:  handlers.NewUpdateSettingsHandler(logger, c.Engine),
		GetVersionHandler:      handlers.NewGetVersionHandler(logger),
	}

	return c, nil
}

func (c *Container) buildReputation(
	cfg config.ReputationConfig,
	httpClient httpx.Client,
	logger *logrus.Logger,
) (signals.ReputationProvider, maintenance.ReputationCache, maintenance.FeedRefresher) {
	var sources []reputation.FeedSource
	for _, f := range cfg.Feeds {
		switch {
		case f.URL != "":
			sources = append(sources, reputation.NewHTTPFeed(f.Name, f.URL, httpClient))
		case f.Path != "":
			sources = append(sources, reputation.NewFileFeed(f.Name, f.Path))
		default:
			logger.WithField("feed", f.Name).Warn("threat feed has neither url nor path, skipping")
		}
	}

	var (
		feedRefresher maintenance.FeedRefresher
		api           signals.ReputationProvider
		repCache      maintenance.ReputationCache
	)
	if len(sources) > 0 {
		c.Feeds = reputation.NewFeedSet(sources, logger)
		feedRefresher = c.Feeds
	}
	if cfg.API.BaseURL != "" {
		breaker := httpx.NewCircuitBreaker("reputation", cfg.API.OpenTimeout, cfg.API.MaxFailures)
		api = reputation.NewAPIProvider(cfg.API, httpClient, breaker)
	}

	provider := reputation.NewProvider(api, c.Feeds, logger)
	if c.Cache != nil {
		cached := reputation.NewCachedProvider(provider, c.Cache, cfg.CacheTTL, logger)
		provider = cached
		repCache = cached
	}
	return provider, repCache, feedRefresher
}

func buildScorer(
	cfg config.LLMConfig,
	httpClient httpx.Client,
	settings *risk.SettingsStore,
	logger *logrus.Logger,
) (scoring.Scorer, error) {
	rules := scoring.NewRuleScorer(settings)
	if !cfg.Enabled {
		return scoring.NewFallbackScorer(nil, rules, logger), nil
	}
	client, err := providersFactory.NewProviderLocator(httpClient).Get(cfg.Provider.Provider)
	if err != nil {
		return nil, fmt.Errorf("llm scorer: %w", err)
	}
	llm := scoring.NewLLMScorer(cfg.LLMConfig, client, settings, logger)
	return scoring.NewFallbackScorer(llm, rules, logger), nil
}

func (c *Container) buildDispatcher(cfg config.NotifyConfig, logger *logrus.Logger) (*notify.Dispatcher, error) {
	opts := []notify.NotifierLocatorOption{
		notify.WithNotifier(kafkaNotify.NotifierName, kafkaNotify.NewKafkaNotifier()),
	}
	if c.Cache != nil {
		opts = append(opts, notify.WithNotifier(redisNotify.NotifierName, redisNotify.NewRedisNotifier(c.Cache)))
	}
	notifiers, err := notify.NewNotifierLocator(opts...).Build(cfg.Targets)
	if err != nil {
		return nil, err
	}
	return notify.NewDispatcher(notifiers, logger, cfg.Timeout), nil
}

// Close releases the connections the container opened, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func instanceID(configured string) string {
	if configured != "" {
		return configured
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "ipguard"
	}
	return host + "-" + uuid.NewString()[:8]
}
