package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/analyzer"
	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/decision"
	"github.com/NeuralTrust/IPGuard/pkg/app/lifecycle"
	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache/event"
	"github.com/NeuralTrust/IPGuard/pkg/infra/worker"
	"github.com/sirupsen/logrus"
)

// ManualBlock is an operator block request. A zero Duration uses the
// configured temporary duration.
type ManualBlock struct {
	Reason    string        `json:"reason"`
	Category  string        `json:"category,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Permanent bool          `json:"permanent"`
	Actor     string        `json:"-"`
}

// Status is the operational snapshot served to dashboards.
type Status struct {
	InstanceID       string             `json:"instance_id"`
	Scorer           string             `json:"scorer"`
	StartedAt        time.Time          `json:"started_at"`
	ActiveBlocks     int                `json:"active_blocks"`
	PermanentBlocks  int                `json:"permanent_blocks"`
	WhitelistEntries int                `json:"whitelist_entries"`
	TrackedIPs       int                `json:"tracked_ips"`
	CachedDecisions  int                `json:"cached_decisions"`
	FeedEntries      int                `json:"feed_entries"`
	States           map[risk.State]int `json:"states"`
	Thresholds       risk.Thresholds    `json:"thresholds"`
	Triggers         risk.Triggers      `json:"triggers"`
	TemporaryBlock   string             `json:"temporary_block_duration"`
	PermanentAfter   int                `json:"permanent_block_threshold"`
	MaintenanceJobs  []string           `json:"maintenance_jobs"`
}

// IPStatus is what the engine knows about one address.
type IPStatus struct {
	IP          string             `json:"ip"`
	Whitelisted bool               `json:"whitelisted"`
	Blocked     bool               `json:"blocked"`
	Block       *block.Record      `json:"block,omitempty"`
	State       risk.State         `json:"state"`
	Activity    *activity.Snapshot `json:"activity,omitempty"`
}

//go:generate mockery --name=Engine --dir=. --output=./mocks --filename=engine_mock.go --case=underscore --with-expecter
type Engine interface {
	AnalyzeIP(ctx context.Context, ip string, rc risk.Context) (risk.Decision, error)
	RecordActivity(ip string, evt activity.Event)
	IsBlocked(ctx context.Context, ip string) bool
	UnblockIP(ctx context.Context, ip, reason, actor string) (bool, error)
	GetStatus(ctx context.Context) Status

	IPStatus(ctx context.Context, ip string) (IPStatus, error)
	BlockIP(ctx context.Context, ip string, req ManualBlock) (*block.Record, error)
	Whitelist(ctx context.Context, cidr, note, actor string) (blocking.WhitelistItem, error)
	RemoveWhitelist(ctx context.Context, cidr, actor string) error
	ListWhitelist() []blocking.WhitelistItem
	ListBlocks(ctx context.Context) []*block.Record
	History(ctx context.Context, limit int) ([]*block.HistoryEntry, error)
	RunMaintenance(ctx context.Context, job string) error
	Settings() risk.Settings
	UpdateSettings(ctx context.Context, next risk.Settings) error

	Start(ctx context.Context, workers int)
	Close()
}

// Notifier is satisfied by the notification dispatcher.
type Notifier interface {
	Notify(ctx context.Context, evt notify.Event) error
}

type Deps struct {
	InstanceID string
	Analyzer   analyzer.Analyzer
	Store      blocking.Store
	Tracker    activity.Tracker
	Cache      decision.Cache
	Registry   *lifecycle.Registry
	Settings   *risk.SettingsStore
	Pool       worker.Pool
	Scheduler  *maintenance.Scheduler
	Publisher  cache.EventPublisher
	Notifier   Notifier
	// Feeds reports the number of threat feed entries; may be nil.
	Feeds      interface{ Len() int }
	ScorerName string
	Logger     *logrus.Logger
}

type engine struct {
	deps Deps
	startedAt time.Time
	pending   sync.WaitGroup
}

// New wires activity triggers to background analysis and block store
// changes to cache invalidation, the lifecycle registry, cluster events and
// notifications.
func New(d Deps) Engine {
	if d.Publisher == nil {
		d.Publisher = cache.NewNoopEventPublisher()
	}
	e := &engine{deps: d, startedAt: time.Now()}
	d.Tracker.SetOnTrigger(e.onTrigger)
	d.Store.OnChange(e.onBlockChange)
	return e
}

func (e *engine) Start(ctx context.Context, workers int) {
	e.deps.Pool.StartWorkers(workers)
	if e.deps.Scheduler != nil {
		e.deps.Scheduler.Start(ctx)
	}
}

func (e *engine) Close() {
	if e.deps.Scheduler != nil {
		e.deps.Scheduler.Stop()
	}
	e.deps.Pool.Shutdown()
	e.pending.Wait()
}

func (e *engine) AnalyzeIP(ctx context.Context, ip string, rc risk.Context) (risk.Decision, error) {
	return e.deps.Analyzer.Analyze(ctx, ip, rc)
}

// RecordActivity never fails and never waits on analysis.
func (e *engine) RecordActivity(ip string, evt activity.Event) {
	e.deps.Tracker.Record(ip, evt)
}

func (e *engine) onTrigger(ip string, trigger activity.Trigger) {
	queued := e.deps.Pool.Enqueue(ip, func(ctx context.Context) {
		d, err := e.deps.Analyzer.Analyze(ctx, ip, risk.Context{ForceRefresh: true})
		entry := e.deps.Logger.WithFields(logrus.Fields{
			"ip":      ip,
			"trigger": trigger,
		})
		if err != nil {
			entry.WithError(err).Error("triggered analysis failed")
			return
		}
		entry.WithField("action", d.Action).Debug("triggered analysis finished")
	})
	if !queued {
		e.deps.Logger.WithFields(logrus.Fields{
			"ip":      ip,
			"trigger": trigger,
		}).Warn("analysis queue full, trigger dropped")
	}
}

func (e *engine) IsBlocked(ctx context.Context, ip string) bool {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return false
	}
	return e.deps.Store.IsBlocked(ctx, normalized)
}

// UnblockIP releases an active block. A manual release also clears the
// activity record so the next failure does not re-trigger a block at once.
func (e *engine) UnblockIP(ctx context.Context, ip, reason, actor string) (bool, error) {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return false, err
	}
	if reason == "" {
		reason = block.ReasonManual
	}
	changed, err := e.deps.Store.Unblock(ctx, normalized, reason, actor)
	if err != nil {
		return false, err
	}
	if changed {
		e.deps.Tracker.Forget(normalized)
	}
	return changed, nil
}

func (e *engine) BlockIP(ctx context.Context, ip string, req ManualBlock) (*block.Record, error) {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return nil, err
	}
	if req.Reason == "" {
		req.Reason = "manual block"
	}
	if req.Category == "" {
		req.Category = risk.CategoryManual
	}
	return e.deps.Store.Block(ctx, normalized, block.Details{
		Reason:    req.Reason,
		RiskScore: 100,
		Category:  req.Category,
		Origin:    block.OriginManual,
		Actor:     req.Actor,
		Duration:  req.Duration,
		Permanent: req.Permanent,
	})
}

func (e *engine) Whitelist(ctx context.Context, cidr, note, actor string) (blocking.WhitelistItem, error) {
	item, err := e.deps.Store.AddWhitelist(ctx, cidr, note, actor)
	if err != nil {
		return item, err
	}
	e.publish(ctx, event.WhitelistChangedEvent{Origin: e.deps.InstanceID, CIDR: item.CIDR, Added: true})
	e.deps.Logger.WithFields(logrus.Fields{"cidr": item.CIDR, "actor": actor}).Info("whitelist entry added")
	return item, nil
}

func (e *engine) RemoveWhitelist(ctx context.Context, cidr, actor string) error {
	if err := e.deps.Store.RemoveWhitelist(ctx, cidr); err != nil {
		return err
	}
	e.publish(ctx, event.WhitelistChangedEvent{Origin: e.deps.InstanceID, CIDR: cidr, Added: false})
	e.deps.Logger.WithFields(logrus.Fields{"cidr": cidr, "actor": actor}).Info("whitelist entry removed")
	return nil
}

func (e *engine) ListWhitelist() []blocking.WhitelistItem {
	return e.deps.Store.ListWhitelist()
}

func (e *engine) ListBlocks(ctx context.Context) []*block.Record {
	return e.deps.Store.ListActive(ctx)
}

func (e *engine) History(ctx context.Context, limit int) ([]*block.HistoryEntry, error) {
	return e.deps.Store.History(ctx, limit)
}

func (e *engine) IPStatus(ctx context.Context, ip string) (IPStatus, error) {
	normalized, err := risk.NormalizeIP(ip)
	if err != nil {
		return IPStatus{}, err
	}
	out := IPStatus{
		IP:          normalized,
		Whitelisted: e.deps.Store.IsWhitelisted(normalized),
		State:       e.deps.Registry.Get(normalized),
	}
	if rec, ok := e.deps.Store.ActiveBlock(ctx, normalized); ok {
		out.Blocked = true
		out.Block = rec
	}
	if snap, ok := e.deps.Tracker.Snapshot(normalized); ok {
		out.Activity = &snap
	}
	return out, nil
}

func (e *engine) RunMaintenance(ctx context.Context, job string) error {
	if e.deps.Scheduler == nil {
		return fmt.Errorf("%w: %s", maintenance.ErrUnknownJob, job)
	}
	return e.deps.Scheduler.RunNow(ctx, job)
}

func (e *engine) Settings() risk.Settings {
	return e.deps.Settings.Get()
}

// UpdateSettings publishes new settings and drops cached decisions, which
// were mapped with the old thresholds.
func (e *engine) UpdateSettings(ctx context.Context, next risk.Settings) error {
	if err := e.deps.Settings.Update(next); err != nil {
		return err
	}
	e.deps.Cache.Clear(ctx)
	e.deps.Logger.WithField("thresholds", next.Thresholds).Info("engine settings updated")
	return nil
}

func (e *engine) GetStatus(ctx context.Context) Status {
	s := e.deps.Settings.Get()
	blocks := e.deps.Store.ListActive(ctx)
	st := Status{
		InstanceID:       e.deps.InstanceID,
		Scorer:           e.deps.ScorerName,
		StartedAt:        e.startedAt,
		ActiveBlocks:     len(blocks),
		WhitelistEntries: len(e.deps.Store.ListWhitelist()),
		TrackedIPs:       e.deps.Tracker.Len(),
		CachedDecisions:  e.deps.Cache.Len(ctx),
		States:           e.deps.Registry.Counts(),
		Thresholds:       s.Thresholds,
		Triggers:         s.Triggers,
		TemporaryBlock:   s.TemporaryBlockDuration.String(),
		PermanentAfter:   s.PermanentBlockThreshold,
	}
	for _, b := range blocks {
		if b.IsPermanent() {
			st.PermanentBlocks++
		}
	}
	if e.deps.Feeds != nil {
		st.FeedEntries = e.deps.Feeds.Len()
	}
	if e.deps.Scheduler != nil {
		st.MaintenanceJobs = e.deps.Scheduler.Jobs()
	}
	return st
}

// onBlockChange runs inside the store's commit path, so notification is
// handed off to a goroutine.
func (e *engine) onBlockChange(ctx context.Context, c blocking.Change) {
	e.deps.Cache.Delete(ctx, c.IP)

	evt := notify.Event{
		IP:        c.IP,
		Reason:    c.Reason,
		Actor:     c.Actor,
		Timestamp: time.Now(),
	}
	if rec := c.Record; rec != nil {
		evt.RiskScore = rec.RiskScore
		evt.Category = rec.Category
		evt.Indicators = rec.Indicators
		evt.Origin = string(rec.Origin)
		evt.Permanent = rec.IsPermanent()
		evt.ExpiresAt = rec.ExpiresAt
	}
	if c.Active {
		evt.Type = notify.EventBlocked
		e.deps.Registry.Set(c.IP, risk.StateBlocked)
	} else {
		evt.Type = notify.EventUnblocked
		if c.Reason == block.ReasonExpired {
			e.deps.Registry.Set(c.IP, risk.StateExpired)
		} else {
			e.deps.Registry.Set(c.IP, risk.StateUnblocked)
		}
	}

	e.publish(ctx, event.BlockChangedEvent{Origin: e.deps.InstanceID, IP: c.IP, Active: c.Active})

	if e.deps.Notifier == nil {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		if err := e.deps.Notifier.Notify(context.WithoutCancel(ctx), evt); err != nil {
			e.deps.Logger.WithError(err).WithFields(logrus.Fields{
				"ip":    evt.IP,
				"event": evt.Type,
			}).Warn("block notification failed")
		}
	}()
}

func (e *engine) publish(ctx context.Context, ev event.Event) {
	if err := e.deps.Publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		e.deps.Logger.WithError(err).WithField("event", ev.Type()).Warn("failed to publish cluster event")
	}
}
