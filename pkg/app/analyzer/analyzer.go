package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/decision"
	"github.com/NeuralTrust/IPGuard/pkg/app/lifecycle"
	"github.com/NeuralTrust/IPGuard/pkg/app/scoring"
	appsignals "github.com/NeuralTrust/IPGuard/pkg/app/signals"
	"github.com/NeuralTrust/IPGuard/pkg/common/keylock"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/notify"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

//go:generate mockery --name=Analyzer --dir=. --output=./mocks --filename=analyzer_mock.go --case=underscore --with-expecter
type Analyzer interface {
	Analyze(ctx context.Context, ip string, rc risk.Context) (risk.Decision, error)
}

// Publisher receives review notifications. Block and unblock events are
// published from the block store hooks.
type Publisher interface {
	Notify(ctx context.Context, evt notify.Event) error
}

type analyzer struct {
	store     blocking.Store
	cache     decision.Cache
	gatherer  appsignals.Gatherer
	scorer    scoring.Scorer
	registry  *lifecycle.Registry
	settings  *risk.SettingsStore
	publisher Publisher
	logger    *logrus.Logger

	locks *keylock.Sharded
	group singleflight.Group
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAnalyzer wires the decision pipeline. publisher may be nil.
func NewAnalyzer(
	store blocking.Store,
	cache decision.Cache,
	gatherer appsignals.Gatherer,
	scorer scoring.Scorer,
	registry *lifecycle.Registry,
	settings *risk.SettingsStore,
	publisher Publisher,
	logger *logrus.Logger,
) Analyzer {
	return &analyzer{
		store:     store,
		cache:     cache,
		gatherer:  gatherer,
		scorer:    scorer,
		registry:  registry,
		settings:  settings,
		publisher: publisher,
		logger:    logger,
		locks:     keylock.New(0),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Analyze returns the decision for ip. When the decision is block and the
// block cannot be persisted, the decision is returned together with an error
// wrapping risk.ErrEnforcementFailed.
func (a *analyzer) Analyze(ctx context.Context, rawIP string, rc risk.Context) (risk.Decision, error) {
	ip, err := risk.NormalizeIP(rawIP)
	if err != nil {
		return risk.Decision{}, err
	}

	if d, ok := a.shortCircuit(ctx, ip, rc); ok {
		return d, nil
	}

	// forced runs come from activity triggers and must see the event that
	// fired them, so they never join an analysis already in flight
	if rc.ForceRefresh {
		return a.analyzeLocked(ctx, ip, rc)
	}

	type outcome struct {
		d   risk.Decision
		err error
	}
	v, _, _ := a.group.Do(ip, func() (interface{}, error) {
		// joined callers share this run, so one caller leaving must not
		// cancel it; AnalysisTimeout still bounds it
		d, err := a.analyzeLocked(context.WithoutCancel(ctx), ip, rc)
		return outcome{d: d, err: err}, nil
	})
	out := v.(outcome)
	return out.d, out.err
}

// shortCircuit answers from the whitelist, the cache or an active block.
func (a *analyzer) shortCircuit(ctx context.Context, ip string, rc risk.Context) (risk.Decision, bool) {
	if a.store.IsWhitelisted(ip) {
		d := risk.WhitelistedDecision(ip, a.now())
		prometheus.DecisionsTotal.WithLabelValues(string(d.Action), string(d.Source)).Inc()
		return d, true
	}
	if !rc.ForceRefresh {
		if d, ok := a.cache.Get(ctx, ip); ok {
			return d, true
		}
	}
	if rec, ok := a.store.ActiveBlock(ctx, ip); ok {
		if a.registry.Get(ip) != risk.StateBlocked {
			a.registry.Set(ip, risk.StateBlocked)
		}
		d := risk.BlockedDecision(ip, rec.Category, rec.Indicators, a.now())
		prometheus.DecisionsTotal.WithLabelValues(string(d.Action), string(d.Source)).Inc()
		return d, true
	}
	return risk.Decision{}, false
}

func (a *analyzer) analyzeLocked(ctx context.Context, ip string, rc risk.Context) (risk.Decision, error) {
	a.locks.Lock(ip)
	defer a.locks.Unlock(ip)

	// the state may have changed while waiting for the lock
	if d, ok := a.shortCircuit(ctx, ip, rc); ok {
		return d, nil
	}

	settings := a.settings.Get()
	if settings.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.AnalysisTimeout)
		defer cancel()
	}

	start := a.now()
	sig := a.gatherer.Gather(ctx, ip, rc)
	assessment, err := a.scorer.Score(ctx, sig)
	if err != nil {
		return risk.Decision{}, fmt.Errorf("failed to score %s: %w", ip, err)
	}

	score, notes := adjust(assessment.RiskScore, sig.Contextual, settings.Adjustments)
	action := settings.ActionFor(score)
	d := risk.Decision{
		IP:         ip,
		Action:     action,
		RiskScore:  score,
		Confidence: risk.ClampScore(assessment.Confidence),
		Category:   assessment.Category,
		Indicators: append(append([]string(nil), assessment.Indicators...), notes...),
		Reasoning:  assessment.Reasoning,
		Source:     assessment.Source,
		Degraded:   assessment.Degraded || sig.Partial(),
		Timestamp:  a.now(),
	}
	if d.Category == "" {
		d.Category = risk.CategoryClean
	}

	var enforceErr error
	if action == risk.ActionBlock {
		enforceErr = a.enforce(ctx, ip, d, sig, settings)
		if errors.Is(enforceErr, risk.ErrWhitelisted) {
			return risk.WhitelistedDecision(ip, a.now()), nil
		}
	}
	if enforceErr == nil {
		d.State = a.transition(ip, risk.StateForAction(action))
		ttl := settings.DecisionTTL
		if d.Degraded {
			ttl = settings.DegradedTTL
		}
		a.cache.Put(ctx, ip, d, ttl)
		// an operator unblock may have landed between persisting the block
		// and the Put above, after its hook already invalidated the cache
		if action == risk.ActionBlock {
			if _, still := a.store.ActiveBlock(ctx, ip); !still {
				a.cache.Delete(ctx, ip)
				if a.registry.Get(ip) == risk.StateBlocked {
					a.registry.Set(ip, risk.StateUnblocked)
				}
				d.State = a.registry.Get(ip)
			}
		}
	} else {
		d.State = a.registry.Get(ip)
	}

	prometheus.DecisionsTotal.WithLabelValues(string(d.Action), string(d.Source)).Inc()
	prometheus.AnalysisLatency.WithLabelValues(string(d.Source)).
		Observe(float64(a.now().Sub(start).Milliseconds()))

	a.logger.WithFields(logrus.Fields{
		"ip":         ip,
		"action":     d.Action,
		"score":      d.RiskScore,
		"base_score": assessment.RiskScore,
		"confidence": d.Confidence,
		"category":   d.Category,
		"source":     d.Source,
		"degraded":   d.Degraded,
		"state":      d.State,
	}).Info("ip analyzed")

	if action == risk.ActionReview {
		a.publish(ctx, notify.Event{
			Type:       notify.EventReview,
			IP:         ip,
			RiskScore:  d.RiskScore,
			Category:   d.Category,
			Reason:     d.Reasoning,
			Indicators: d.Indicators,
			Origin:     string(block.OriginAutomatic),
			Timestamp:  d.Timestamp,
		})
	}
	return d, enforceErr
}

// enforce persists an automatic block, escalating to permanent once the IP
// has reached the offense threshold. Persistence is retried with
// exponential backoff.
func (a *analyzer) enforce(ctx context.Context, ip string, d risk.Decision, sig *signals.ThreatSignals, settings risk.Settings) error {
	prior, err := a.store.OffenseCount(ctx, ip)
	if err != nil {
		a.logger.WithError(err).WithField("ip", ip).Warn("failed to count prior offenses, assuming none")
		prior = 0
	}
	details := block.Details{
		Reason:     d.Reasoning,
		RiskScore:  d.RiskScore,
		Category:   d.Category,
		Indicators: d.Indicators,
		Origin:     block.OriginAutomatic,
		Permanent:  prior >= settings.PermanentBlockThreshold,
	}
	if details.Reason == "" {
		details.Reason = fmt.Sprintf("risk score %d (%s)", d.RiskScore, d.Category)
	}
	if sig.Location != nil {
		details.Country = sig.Location.Country
	}

	attempts := settings.PersistRetries
	if attempts < 1 {
		attempts = 1
	}
	backoff := settings.PersistBackoff
	for attempt := 1; ; attempt++ {
		_, err = a.store.Block(ctx, ip, details)
		if err == nil || errors.Is(err, risk.ErrWhitelisted) {
			return err
		}
		if attempt >= attempts {
			break
		}
		a.logger.WithError(err).WithFields(logrus.Fields{
			"ip":      ip,
			"attempt": attempt,
		}).Warn("block persistence failed, retrying")
		if sleepErr := a.sleep(ctx, backoff); sleepErr != nil {
			err = errors.Join(err, sleepErr)
			break
		}
		backoff *= 2
	}

	prometheus.EnforcementFailures.Inc()
	a.logger.WithError(err).WithFields(logrus.Fields{
		"ip":       ip,
		"score":    d.RiskScore,
		"category": d.Category,
		"critical": true,
	}).Error("block decision could not be enforced")
	return fmt.Errorf("%w: %s: %v", risk.ErrEnforcementFailed, ip, err)
}

// transition records the new state. A registry that still says blocked
// after the store released the IP missed the release, so it is marked
// unblocked before moving on.
func (a *analyzer) transition(ip string, to risk.State) risk.State {
	if a.registry.Get(ip) == risk.StateBlocked && to != risk.StateBlocked {
		a.registry.Set(ip, risk.StateUnblocked)
	}
	if _, err := a.registry.Transition(ip, to); err != nil {
		a.logger.WithError(err).WithField("ip", ip).Warn("unexpected state transition")
		a.registry.Set(ip, to)
	}
	return to
}

func (a *analyzer) publish(ctx context.Context, evt notify.Event) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Notify(ctx, evt); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"ip":    evt.IP,
			"event": evt.Type,
		}).Warn("failed to notify")
	}
}

// adjust applies the contextual multipliers to a base score. The first
// visit discount only applies to scores that are already low.
func adjust(base int, c signals.Contextual, adj risk.Adjustments) (int, []string) {
	score := float64(base)
	var notes []string
	if c.IsFirstVisit && base < adj.LowScoreCeiling && adj.FirstVisitMultiplier > 0 {
		score *= adj.FirstVisitMultiplier
		notes = append(notes, "first visit discount")
	}
	if c.HasValidSession && adj.ValidSessionMultiplier > 0 {
		score *= adj.ValidSessionMultiplier
		notes = append(notes, "valid session discount")
	}
	if c.SuspiciousUserAgent && adj.SuspiciousUAMultiplier > 0 {
		score *= adj.SuspiciousUAMultiplier
		notes = append(notes, "suspicious user agent")
	}
	return risk.ClampScore(int(math.Round(score))), notes
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
