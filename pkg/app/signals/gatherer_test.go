package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals/mocks"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func settingsStore(t *testing.T, lookupTimeout time.Duration) *risk.SettingsStore {
	s := risk.DefaultSettings()
	s.LookupTimeout = lookupTimeout
	store, err := risk.NewSettingsStore(s)
	require.NoError(t, err)
	return store
}

func TestGatherer_AllSignals(t *testing.T) {
	store := settingsStore(t, time.Second)
	geo := mocks.NewGeoProvider(t)
	rep := mocks.NewReputationProvider(t)
	tracker := activity.NewTracker(store)
	tracker.Record("203.0.113.5", activity.Event{Failed: true})

	geo.EXPECT().Lookup(mock.Anything, "203.0.113.5").Return(&signals.Location{Country: "RU", IsTor: true}, nil)
	rep.EXPECT().Lookup(mock.Anything, "203.0.113.5").Return(&signals.Reputation{RiskScore: 70}, nil)

	g := NewGatherer(geo, rep, tracker, store, logger.Discard())
	out := g.Gather(context.Background(), "203.0.113.5", risk.Context{UserAgent: "curl/8.0", IsFirstVisit: true})

	require.NotNil(t, out.Location)
	assert.Equal(t, "RU", out.Location.Country)
	require.NotNil(t, out.Reputation)
	assert.Equal(t, 70, out.Reputation.RiskScore)
	require.NotNil(t, out.Activity)
	assert.Equal(t, 1, out.Activity.TotalFailures)
	assert.True(t, out.Contextual.SuspiciousUserAgent)
	assert.True(t, out.Contextual.IsFirstVisit)
	assert.False(t, out.Partial())
}

func TestGatherer_FailureBecomesAbsent(t *testing.T) {
	store := settingsStore(t, time.Second)
	geo := mocks.NewGeoProvider(t)
	rep := mocks.NewReputationProvider(t)

	geo.EXPECT().Lookup(mock.Anything, mock.Anything).Return(nil, errors.New("db closed"))
	rep.EXPECT().Lookup(mock.Anything, mock.Anything).Return(&signals.Reputation{RiskScore: 5}, nil)

	out := NewGatherer(geo, rep, nil, store, logger.Discard()).
		Gather(context.Background(), "198.51.100.1", risk.Context{})

	assert.Nil(t, out.Location)
	assert.NotNil(t, out.Reputation)
	assert.True(t, out.Partial())
	assert.Contains(t, out.Errors[0], "geolocation")
}

func TestGatherer_TimeoutBoundsSlowProvider(t *testing.T) {
	store := settingsStore(t, 50*time.Millisecond)
	rep := mocks.NewReputationProvider(t)
	rep.EXPECT().Lookup(mock.Anything, mock.Anything).RunAndReturn(
		func(context.Context, string) (*signals.Reputation, error) {
			time.Sleep(time.Second)
			return &signals.Reputation{}, nil
		})

	start := time.Now()
	out := NewGatherer(nil, rep, nil, store, logger.Discard()).
		Gather(context.Background(), "198.51.100.1", risk.Context{})

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Nil(t, out.Reputation)
	assert.Contains(t, out.Errors[0], "deadline exceeded")
}

func TestGatherer_NoProviders(t *testing.T) {
	out := NewGatherer(nil, nil, nil, settingsStore(t, time.Second), logger.Discard()).
		Gather(context.Background(), "198.51.100.1", risk.Context{})
	assert.Nil(t, out.Location)
	assert.Nil(t, out.Reputation)
	assert.Nil(t, out.Activity)
	assert.False(t, out.Partial())
}
