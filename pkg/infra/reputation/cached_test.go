package reputation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals/mocks"
	"github.com/NeuralTrust/IPGuard/pkg/infra/cache"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedProvider_MissThenStore(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	upstream := mocks.NewReputationProvider(t)
	rep := &signals.Reputation{RiskScore: 40, Category: "clean", Source: "abuseipdb"}
	upstream.EXPECT().Lookup(mock.Anything, "198.51.100.7").Return(rep, nil).Once()

	payload, err := json.Marshal(rep)
	require.NoError(t, err)
	rmock.ExpectGet("reputation:198.51.100.7").RedisNil()
	rmock.ExpectSet("reputation:198.51.100.7", string(payload), 6*time.Hour).SetVal("OK")

	p := NewCachedProvider(upstream, cache.NewClientFromRedis(db), 6*time.Hour, logger.Discard())
	got, err := p.Lookup(context.Background(), "198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, 40, got.RiskScore)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCachedProvider_Hit(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	upstream := mocks.NewReputationProvider(t)

	rmock.ExpectGet("reputation:198.51.100.7").SetVal(`{"risk_score":75,"category":"abuse","source":"abuseipdb","feed_hit":false}`)

	p := NewCachedProvider(upstream, cache.NewClientFromRedis(db), time.Hour, logger.Discard())
	got, err := p.Lookup(context.Background(), "198.51.100.7")
	require.NoError(t, err)
	assert.Equal(t, 75, got.RiskScore)
	assert.Equal(t, "abuse", got.Category)
	upstream.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestCachedProvider_UpstreamErrorNotCached(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	upstream := mocks.NewReputationProvider(t)
	upstream.EXPECT().Lookup(mock.Anything, "198.51.100.7").Return(nil, errors.New("timeout"))

	rmock.ExpectGet("reputation:198.51.100.7").RedisNil()

	p := NewCachedProvider(upstream, cache.NewClientFromRedis(db), time.Hour, logger.Discard())
	_, err := p.Lookup(context.Background(), "198.51.100.7")
	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestCachedProvider_Invalidate(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.ExpectScan(0, "reputation:*", 100).SetVal([]string{"reputation:1.1.1.1"}, 0)
	rmock.ExpectDel("reputation:1.1.1.1").SetVal(1)

	p := NewCachedProvider(mocks.NewReputationProvider(t), cache.NewClientFromRedis(db), time.Hour, logger.Discard())
	n, err := p.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
