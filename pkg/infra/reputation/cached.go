package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// CachedProvider memoizes another provider in redis. Invalidate drops every
// cached entry so the next lookups hit the upstream again.
type CachedProvider interface {
	signals.ReputationProvider
	Invalidate(ctx context.Context) (int, error)
}

type cachedProvider struct {
	next   signals.ReputationProvider
	cache  cache.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCachedProvider(next signals.ReputationProvider, c cache.Client, ttl time.Duration, logger *logrus.Logger) CachedProvider {
	return &cachedProvider{next: next, cache: c, ttl: ttl, logger: logger}
}

func (p *cachedProvider) Lookup(ctx context.Context, ip string) (*signals.Reputation, error) {
	key := fmt.Sprintf(cache.ReputationKeyPattern, ip)
	raw, err := p.cache.Get(ctx, key)
	switch {
	case err == nil:
		var rep signals.Reputation
		if jsonErr := json.Unmarshal([]byte(raw), &rep); jsonErr == nil {
			return &rep, nil
		}
		p.logger.WithField("ip", ip).Warn("discarding corrupt cached reputation")
	case !errors.Is(err, redis.Nil):
		p.logger.WithError(err).WithField("ip", ip).Warn("reputation cache read failed")
	}

	rep, err := p.next.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rep); err == nil {
		if err := p.cache.Set(ctx, key, string(b), p.ttl); err != nil {
			p.logger.WithError(err).WithField("ip", ip).Warn("reputation cache write failed")
		}
	}
	return rep, nil
}

func (p *cachedProvider) Invalidate(ctx context.Context) (int, error) {
	return p.cache.DeleteByPattern(ctx, fmt.Sprintf(cache.ReputationKeyPattern, "*"))
}
