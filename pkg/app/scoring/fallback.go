package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/sirupsen/logrus"
)

type fallbackScorer struct {
	primary   Scorer
	secondary Scorer
	logger    *logrus.Logger
}

// NewFallbackScorer tries primary and falls back to secondary on any
// error. Primary failures are logged and counted but never returned. A nil
// primary means secondary alone.
func NewFallbackScorer(primary, secondary Scorer, logger *logrus.Logger) Scorer {
	return &fallbackScorer{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallbackScorer) Name() string {
	if f.primary == nil {
		return f.secondary.Name()
	}
	return f.primary.Name() + "+" + f.secondary.Name()
}

func (f *fallbackScorer) Score(ctx context.Context, s *signals.ThreatSignals) (Assessment, error) {
	if f.primary == nil {
		return f.secondary.Score(ctx, s)
	}
	a, err := f.tryPrimary(ctx, s)
	if err == nil {
		return a, nil
	}

	reason := fallbackReason(err)
	prometheus.ScorerFallbacks.WithLabelValues(reason).Inc()
	f.logger.WithError(err).WithFields(logrus.Fields{
		"ip":     s.IP,
		"scorer": f.primary.Name(),
		"reason": reason,
	}).Warn("primary scorer failed, using fallback")

	a, err = f.secondary.Score(ctx, s)
	if err != nil {
		return Assessment{}, err
	}
	a.Degraded = true
	return a, nil
}

func (f *fallbackScorer) tryPrimary(ctx context.Context, s *signals.ThreatSignals) (a Assessment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return f.primary.Score(ctx, s)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, httpx.ErrBreakerOpen):
		return "breaker_open"
	case errors.Is(err, ErrInvalidAssessment):
		return "invalid_output"
	default:
		return "error"
	}
}
