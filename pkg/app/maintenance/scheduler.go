package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/lifecycle"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/report"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	JobExpireBlocks  = "expire_blocks"
	JobRefreshFeeds  = "refresh_feeds"
	JobSummaryReport = "summary_report"
	JobReapActivity  = "reap_activity"

	topN = 5
)

var ErrUnknownJob = errors.New("unknown maintenance job")

//go:generate mockery --name=ReportSink --dir=. --output=./mocks --filename=report_sink_mock.go --case=underscore --with-expecter
type ReportSink interface {
	Write(ctx context.Context, summary report.Summary) error
}

// ReputationCache is the part of the cached reputation provider the feed
// refresh needs.
type ReputationCache interface {
	Invalidate(ctx context.Context) (int, error)
}

type FeedRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type Config struct {
	ExpireInterval   time.Duration `mapstructure:"expire_interval"`
	FeedInterval     time.Duration `mapstructure:"feed_interval"`
	ReportInterval   time.Duration `mapstructure:"report_interval"`
	ReapInterval     time.Duration `mapstructure:"reap_interval"`
	IdleTTL          time.Duration `mapstructure:"idle_ttl"`
	HistoryRetention int           `mapstructure:"history_retention"`
	JobTimeout       time.Duration `mapstructure:"job_timeout"`
}

func (c Config) withDefaults() Config {
	if c.ExpireInterval <= 0 {
		c.ExpireInterval = time.Hour
	}
	if c.FeedInterval <= 0 {
		c.FeedInterval = 6 * time.Hour
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = 24 * time.Hour
	}
	if c.ReapInterval <= 0 {
		c.ReapInterval = 15 * time.Minute
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 24 * time.Hour
	}
	if c.HistoryRetention <= 0 {
		c.HistoryRetention = 1000
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	return c
}

// Deps are the collaborators the jobs act on. Reputation, Feeds and Sink
// may be nil; the matching job then does nothing.
type Deps struct {
	Store      blocking.Store
	Tracker    activity.Tracker
	Registry   *lifecycle.Registry
	Reputation ReputationCache
	Feeds      FeedRefresher
	Sink       ReportSink
}

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

type Scheduler struct {
	deps   Deps
	cfg    Config
	logger *logrus.Logger
	now    func() time.Time

	jobs   []job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// runMu keeps a job from overlapping with itself
	runMu map[string]*sync.Mutex
}

func NewScheduler(deps Deps, cfg Config, logger *logrus.Logger) *Scheduler {
	s := &Scheduler{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		logger: logger,
		now:    time.Now,
		runMu:  make(map[string]*sync.Mutex),
	}
	s.jobs = []job{
		{JobExpireBlocks, s.cfg.ExpireInterval, s.expireBlocks},
		{JobRefreshFeeds, s.cfg.FeedInterval, s.refreshFeeds},
		{JobSummaryReport, s.cfg.ReportInterval, s.summaryReport},
		{JobReapActivity, s.cfg.ReapInterval, s.reapActivity},
	}
	for _, j := range s.jobs {
		s.runMu[j.name] = &sync.Mutex{}
	}
	return s
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.name)
	}
	return names
}

// Start runs every job on its own ticker until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.logger.WithField("jobs", s.Jobs()).Info("maintenance scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.execute(ctx, j)
		}
	}
}

// RunNow runs the named job synchronously.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, j := range s.jobs {
		if j.name == name {
			return s.execute(ctx, j)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

func (s *Scheduler) execute(ctx context.Context, j job) (err error) {
	mu := s.runMu[j.name]
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
		entry := s.logger.WithFields(logrus.Fields{
			"job":      j.name,
			"duration": s.now().Sub(start).String(),
		})
		if err != nil {
			prometheus.MaintenanceRuns.WithLabelValues(j.name, "error").Inc()
			entry.WithError(err).Error("maintenance job failed")
			return
		}
		prometheus.MaintenanceRuns.WithLabelValues(j.name, "ok").Inc()
		entry.Debug("maintenance job finished")
	}()
	return j.run(ctx)
}

func (s *Scheduler) expireBlocks(ctx context.Context) error {
	expired, err := s.deps.Store.ExpireStale(ctx, s.now())
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("expired stale blocks")
	}
	trimmed, trimErr := s.deps.Store.TrimHistory(ctx, s.cfg.HistoryRetention)
	if trimmed > 0 {
		s.logger.WithField("trimmed", trimmed).Debug("trimmed blocking history")
	}
	return errors.Join(err, trimErr)
}

func (s *Scheduler) refreshFeeds(ctx context.Context) error {
	var errs []error
	if s.deps.Reputation != nil {
		n, err := s.deps.Reputation.Invalidate(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to invalidate reputation cache: %w", err))
		} else {
			s.logger.WithField("keys", n).Debug("reputation cache invalidated")
		}
	}
	if s.deps.Feeds != nil {
		n, err := s.deps.Feeds.Refresh(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to refresh threat feeds: %w", err))
		}
		s.logger.WithField("entries", n).Info("threat feeds refreshed")
	}
	return errors.Join(errs...)
}

// reapActivity drops idle activity records and lifecycle states. Blocked
// IPs keep their state.
func (s *Scheduler) reapActivity(context.Context) error {
	cutoff := s.now().Add(-s.cfg.IdleTTL)
	fields := logrus.Fields{}
	if s.deps.Tracker != nil {
		fields["records"] = s.deps.Tracker.Reap(cutoff)
	}
	if s.deps.Registry != nil {
		fields["states"] = s.deps.Registry.Reap(cutoff)
	}
	s.logger.WithFields(fields).Debug("reaped idle activity")
	return nil
}

func (s *Scheduler) summaryReport(ctx context.Context) error {
	summary, err := s.BuildSummary(ctx)
	if err != nil {
		return err
	}
	if s.deps.Sink == nil {
		return nil
	}
	return s.deps.Sink.Write(ctx, summary)
}

// BuildSummary aggregates the current blocks and the history of the last
// report interval.
func (s *Scheduler) BuildSummary(ctx context.Context) (report.Summary, error) {
	now := s.now()
	summary := report.Summary{
		ID:          uuid.New(),
		GeneratedAt: now,
		WindowStart: now.Add(-s.cfg.ReportInterval),
	}

	categories := map[string]int{}
	countries := map[string]int{}
	for _, rec := range s.deps.Store.ListActive(ctx) {
		summary.TotalActive++
		if rec.Origin == block.OriginManual {
			summary.Manual++
		} else {
			summary.Automatic++
		}
		if rec.IsPermanent() {
			summary.Permanent++
		}
		if rec.Category != "" {
			categories[rec.Category]++
		}
		if rec.Country != "" {
			countries[rec.Country]++
		}
	}
	summary.TopCategories = top(categories, topN)
	summary.TopCountries = top(countries, topN)
	if s.deps.Registry != nil {
		summary.ReviewQueue = s.deps.Registry.Count(risk.StateUnderReview)
	}

	history, err := s.deps.Store.HistorySince(ctx, summary.WindowStart)
	if err != nil {
		return summary, fmt.Errorf("failed to read history: %w", err)
	}
	for _, h := range history {
		switch h.Action {
		case block.HistoryBlocked:
			summary.BlocksInWindow++
		case block.HistoryUnblocked:
			summary.UnblocksInWindow++
		}
	}
	return summary, nil
}

func top(counts map[string]int, n int) []report.Count {
	out := make([]report.Count, 0, len(counts))
	for k, v := range counts {
		out = append(out, report.Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
