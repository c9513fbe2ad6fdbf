package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//go:generate mockery --name=Gatherer --dir=. --output=./mocks --filename=gatherer_mock.go --case=underscore --with-expecter
type Gatherer interface {
	Gather(ctx context.Context, ip string, rc risk.Context) *signals.ThreatSignals
}

type gatherer struct {
	geo        signals.GeoProvider
	reputation signals.ReputationProvider
	tracker    activity.Tracker
	settings   *risk.SettingsStore
	logger     *logrus.Logger
	now        func() time.Time
}

// NewGatherer accepts nil providers; the matching signal is then simply
// absent.
func NewGatherer(
	geo signals.GeoProvider,
	reputation signals.ReputationProvider,
	tracker activity.Tracker,
	settings *risk.SettingsStore,
	logger *logrus.Logger,
) Gatherer {
	return &gatherer{
		geo:        geo,
		reputation: reputation,
		tracker:    tracker,
		settings:   settings,
		logger:     logger,
		now:        time.Now,
	}
}

// Gather never fails. A lookup that errors or exceeds the lookup timeout
// leaves its field nil and adds a note to Errors.
func (g *gatherer) Gather(ctx context.Context, ip string, rc risk.Context) *signals.ThreatSignals {
	timeout := g.settings.Get().LookupTimeout
	out := &signals.ThreatSignals{
		IP:         ip,
		Contextual: contextual(rc),
	}

	var (
		geoErr error
		repErr error
	)
	eg, egCtx := errgroup.WithContext(ctx)
	if g.geo != nil {
		eg.Go(func() error {
			out.Location, geoErr = lookup(egCtx, timeout, func(c context.Context) (*signals.Location, error) {
				return g.geo.Lookup(c, ip)
			})
			return nil
		})
	}
	if g.reputation != nil {
		eg.Go(func() error {
			out.Reputation, repErr = lookup(egCtx, timeout, func(c context.Context) (*signals.Reputation, error) {
				return g.reputation.Lookup(c, ip)
			})
			return nil
		})
	}
	_ = eg.Wait()

	if geoErr != nil {
		g.recordFailure(out, ip, "geolocation", geoErr)
	}
	if repErr != nil {
		g.recordFailure(out, ip, "reputation", repErr)
	}
	if g.tracker != nil {
		out.Activity = g.tracker.Patterns(ip, g.now())
	}
	out.GatheredAt = g.now()
	return out
}

func (g *gatherer) recordFailure(out *signals.ThreatSignals, ip, signal string, err error) {
	prometheus.SignalFailures.WithLabelValues(signal).Inc()
	out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", signal, err))
	g.logger.WithError(err).WithFields(logrus.Fields{
		"ip":     ip,
		"signal": signal,
	}).Warn("signal lookup failed")
}

// lookup bounds fn by timeout even when fn ignores its context.
func lookup[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (*T, error)) (*T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	type result struct {
		v   *T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic recovered: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err == nil && r.v == nil {
			return nil, fmt.Errorf("empty result")
		}
		return r.v, r.err
	}
}

func contextual(rc risk.Context) signals.Contextual {
	c := signals.Contextual{
		IsFirstVisit:        rc.IsFirstVisit,
		HasValidSession:     rc.HasValidSession,
		SuspiciousUserAgent: rc.SuspiciousUserAgent,
		UserAgent:           rc.UserAgent,
	}
	if rc.UserAgent != "" {
		info := ParseUserAgent(rc.UserAgent)
		c.Browser = info.Browser
		c.OS = info.OS
		c.DeviceType = info.Device
		c.SuspiciousUserAgent = c.SuspiciousUserAgent || info.Suspicious
	}
	return c
}
