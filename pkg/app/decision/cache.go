package decision

import (
	"context"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
)

// Cache memoizes the last Decision per IP. Entries are not durable; losing
// them only costs a re-analysis.
//
//go:generate mockery --name=Cache --dir=. --output=./mocks --filename=cache_mock.go --case=underscore --with-expecter
type Cache interface {
	Get(ctx context.Context, ip string) (risk.Decision, bool)
	Put(ctx context.Context, ip string, d risk.Decision, ttl time.Duration)
	Delete(ctx context.Context, ip string)
	Clear(ctx context.Context)
	Len(ctx context.Context) int
}

type memoryCache struct {
	entries *cache.TTLMap
}

func NewMemoryCache(entries *cache.TTLMap) Cache {
	if entries == nil {
		entries = cache.NewTTLMap(time.Hour)
	}
	return &memoryCache{entries: entries}
}

func (c *memoryCache) Get(_ context.Context, ip string) (risk.Decision, bool) {
	v, ok := c.entries.Get(ip)
	if !ok {
		prometheus.CacheLookups.WithLabelValues("miss").Inc()
		return risk.Decision{}, false
	}
	d, ok := v.(risk.Decision)
	if !ok {
		c.entries.Delete(ip)
		prometheus.CacheLookups.WithLabelValues("miss").Inc()
		return risk.Decision{}, false
	}
	prometheus.CacheLookups.WithLabelValues("hit").Inc()
	return d, true
}

func (c *memoryCache) Put(_ context.Context, ip string, d risk.Decision, ttl time.Duration) {
	c.entries.SetWithTTL(ip, d, ttl)
}

func (c *memoryCache) Delete(_ context.Context, ip string) {
	c.entries.Delete(ip)
}

func (c *memoryCache) Clear(context.Context) {
	c.entries.Clear()
}

func (c *memoryCache) Len(context.Context) int {
	c.entries.Purge()
	return c.entries.Len()
}
