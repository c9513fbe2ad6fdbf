package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWithPrefix("ipguard_", registry)

var (
	// analysis latency in milliseconds
	latencyBuckets = []float64{
		1, 5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000,
	}

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decisions_total",
			Help: "Decisions rendered by the analyzer",
		},
		[]string{"action", "source"},
	)

	AnalysisLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_ms",
			Help:    "Full analysis latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"source"},
	)

	CacheLookups = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "decision_cache_lookups_total",
			Help: "Decision cache lookups by result",
		},
		[]string{"result"},
	)

	ScorerFallbacks = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "scorer_fallbacks_total",
			Help: "Times the primary scorer failed and rules were used",
		},
		[]string{"reason"},
	)

	SignalFailures = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_failures_total",
			Help: "Failed or timed out signal lookups",
		},
		[]string{"signal"},
	)

	BlocksTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "blocks_total",
			Help: "Blocks created by origin and kind",
		},
		[]string{"origin", "kind"},
	)

	UnblocksTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "unblocks_total",
			Help: "Blocks released by reason",
		},
		[]string{"reason"},
	)

	EnforcementFailures = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "enforcement_failures_total",
			Help: "Block decisions that could not be persisted after retries",
		},
	)

	ActiveBlocks = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "active_blocks",
			Help: "Currently active blocks",
		},
	)

	TrackedIPs = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "tracked_ips",
			Help: "IPs with an activity record",
		},
	)

	DroppedJobs = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_jobs_dropped_total",
			Help: "Triggered analyses dropped because the queue was full",
		},
	)

	HTTPPanics = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_total",
			Help: "Panics recovered by the HTTP servers, by route",
		},
		[]string{"route"},
	)

	MaintenanceRuns = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintenance_runs_total",
			Help: "Maintenance job runs by job and result",
		},
		[]string{"job", "result"},
	)
)

type MetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	ProcessCollector bool `mapstructure:"process_collector"`
}

var Config MetricsConfig

func Initialize(cfg MetricsConfig) {
	Config = cfg
	if cfg.ProcessCollector {
		_ = registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		_ = registry.Register(collectors.NewGoCollector())
	}
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func Registry() *prometheus.Registry {
	return registry
}
