package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type redisCache struct {
	client cache.Client
	logger *logrus.Logger
}

// NewRedisCache shares decisions between instances. Redis errors degrade to
// cache misses.
func NewRedisCache(client cache.Client, logger *logrus.Logger) Cache {
	return &redisCache{client: client, logger: logger}
}

func (c *redisCache) key(ip string) string {
	return fmt.Sprintf(cache.DecisionKeyPattern, ip)
}

func (c *redisCache) Get(ctx context.Context, ip string) (risk.Decision, bool) {
	raw, err := c.client.Get(ctx, c.key(ip))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("ip", ip).Warn("decision cache read failed")
		}
		prometheus.CacheLookups.WithLabelValues("miss").Inc()
		return risk.Decision{}, false
	}
	var d risk.Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		c.logger.WithError(err).WithField("ip", ip).Warn("discarding corrupt cached decision")
		c.Delete(ctx, ip)
		prometheus.CacheLookups.WithLabelValues("miss").Inc()
		return risk.Decision{}, false
	}
	prometheus.CacheLookups.WithLabelValues("hit").Inc()
	return d, true
}

func (c *redisCache) Put(ctx context.Context, ip string, d risk.Decision, ttl time.Duration) {
	b, err := json.Marshal(d)
	if err != nil {
		c.logger.WithError(err).WithField("ip", ip).Error("failed to marshal decision")
		return
	}
	if err := c.client.Set(ctx, c.key(ip), string(b), ttl); err != nil {
		c.logger.WithError(err).WithField("ip", ip).Warn("decision cache write failed")
	}
}

func (c *redisCache) Delete(ctx context.Context, ip string) {
	if err := c.client.Delete(ctx, c.key(ip)); err != nil {
		c.logger.WithError(err).WithField("ip", ip).Warn("decision cache delete failed")
	}
}

func (c *redisCache) Clear(ctx context.Context) {
	if _, err := c.client.DeleteByPattern(ctx, c.key("*")); err != nil {
		c.logger.WithError(err).Warn("decision cache clear failed")
	}
}

func (c *redisCache) Len(ctx context.Context) int {
	n, err := c.client.CountKeys(ctx, c.key("*"))
	if err != nil {
		c.logger.WithError(err).Warn("decision cache scan failed")
	}
	return n
}
