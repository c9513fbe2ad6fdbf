package maintenance_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/app/activity"
	"github.com/NeuralTrust/IPGuard/pkg/app/blocking"
	"github.com/NeuralTrust/IPGuard/pkg/app/lifecycle"
	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance"
	"github.com/NeuralTrust/IPGuard/pkg/app/maintenance/mocks"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/report"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/NeuralTrust/IPGuard/pkg/infra/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type panickyTracker struct {
	activity.Tracker
}

func (panickyTracker) Reap(time.Time) int { panic("corrupted record") }

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) (int, error) {
	c.calls.Add(1)
	return 42, c.err
}

func (c *countingRefresher) Invalidate(context.Context) (int, error) {
	c.calls.Add(1)
	return 3, nil
}

func newStore(t *testing.T) (blocking.Store, *risk.SettingsStore) {
	settings, err := risk.NewSettingsStore(risk.DefaultSettings())
	require.NoError(t, err)
	store, err := blocking.NewStore(repository.NewMemoryBlockRepository(), settings, nil, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store, settings
}

func TestRunNow_ExpireBlocks(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, err := store.Block(ctx, "192.0.2.10", block.Details{Reason: "short", Duration: time.Nanosecond})
	require.NoError(t, err)
	_, err = store.Block(ctx, "192.0.2.11", block.Details{Reason: "long"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	s := maintenance.NewScheduler(maintenance.Deps{Store: store}, maintenance.Config{}, logger.Discard())
	require.NoError(t, s.RunNow(ctx, maintenance.JobExpireBlocks))

	active := store.ListActive(ctx)
	require.Len(t, active, 1)
	assert.Equal(t, "192.0.2.11", active[0].IP)
}

func TestRunNow_UnknownJob(t *testing.T) {
	store, _ := newStore(t)
	s := maintenance.NewScheduler(maintenance.Deps{Store: store}, maintenance.Config{}, logger.Discard())
	assert.ErrorIs(t, s.RunNow(context.Background(), "defrag"), maintenance.ErrUnknownJob)
}

func TestRunNow_RecoversPanics(t *testing.T) {
	store, _ := newStore(t)
	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Tracker: panickyTracker{}}, maintenance.Config{}, logger.Discard())

	err := s.RunNow(context.Background(), maintenance.JobReapActivity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered")

	// the other jobs are unaffected
	assert.NoError(t, s.RunNow(context.Background(), maintenance.JobExpireBlocks))
}

func TestRunNow_RefreshFeeds(t *testing.T) {
	store, _ := newStore(t)
	rep := &countingRefresher{}
	feeds := &countingRefresher{err: errors.New("feed unreachable")}
	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Reputation: rep, Feeds: feeds},
		maintenance.Config{}, logger.Discard())

	err := s.RunNow(context.Background(), maintenance.JobRefreshFeeds)
	assert.ErrorContains(t, err, "feed unreachable")
	assert.Equal(t, int32(1), rep.calls.Load())
	assert.Equal(t, int32(1), feeds.calls.Load())
}

func TestRunNow_ReapActivity(t *testing.T) {
	store, settings := newStore(t)
	tracker := activity.NewTracker(settings)
	tracker.Record("198.51.100.1", activity.Event{Timestamp: time.Now().Add(-48 * time.Hour)})
	tracker.Record("198.51.100.2", activity.Event{})

	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Tracker: tracker},
		maintenance.Config{IdleTTL: 24 * time.Hour}, logger.Discard())
	require.NoError(t, s.RunNow(context.Background(), maintenance.JobReapActivity))

	_, ok := tracker.Snapshot("198.51.100.1")
	assert.False(t, ok)
	_, ok = tracker.Snapshot("198.51.100.2")
	assert.True(t, ok)
}

func TestRunNow_ReapActivityForgetsIdleStates(t *testing.T) {
	store, settings := newStore(t)
	tracker := activity.NewTracker(settings)
	registry := lifecycle.NewRegistry()
	for i := 0; i < 500; i++ {
		ip := fmt.Sprintf("10.0.%d.%d", i/250, i%250)
		tracker.Record(ip, activity.Event{})
		registry.Set(ip, risk.StateAllowed)
	}
	registry.Set("192.0.2.30", risk.StateBlocked)
	time.Sleep(time.Millisecond)

	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Tracker: tracker, Registry: registry},
		maintenance.Config{IdleTTL: time.Nanosecond}, logger.Discard())
	require.NoError(t, s.RunNow(context.Background(), maintenance.JobReapActivity))

	assert.Equal(t, 0, tracker.Len())
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, risk.StateBlocked, registry.Get("192.0.2.30"))
}

func TestRunNow_SummaryReport(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	registry := lifecycle.NewRegistry()
	registry.Set("198.51.100.9", risk.StateUnderReview)

	_, err := store.Block(ctx, "192.0.2.20", block.Details{Category: risk.CategoryBruteForce, Country: "RU"})
	require.NoError(t, err)
	_, err = store.Block(ctx, "192.0.2.21", block.Details{Category: risk.CategoryBruteForce, Country: "CN"})
	require.NoError(t, err)
	_, err = store.Block(ctx, "192.0.2.22", block.Details{
		Category: risk.CategoryManual, Origin: block.OriginManual, Permanent: true, Country: "RU",
	})
	require.NoError(t, err)
	_, err = store.Unblock(ctx, "192.0.2.21", "", "admin")
	require.NoError(t, err)

	sink := mocks.NewReportSink(t)
	sink.EXPECT().Write(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, s report.Summary) error {
			assert.Equal(t, 2, s.TotalActive)
			assert.Equal(t, 1, s.Automatic)
			assert.Equal(t, 1, s.Manual)
			assert.Equal(t, 1, s.Permanent)
			assert.Equal(t, 1, s.ReviewQueue)
			assert.Equal(t, 3, s.BlocksInWindow)
			assert.Equal(t, 1, s.UnblocksInWindow)
			assert.Equal(t, []report.Count{{Key: "RU", Count: 2}}, s.TopCountries)
			assert.Len(t, s.TopCategories, 2)
			return nil
		}).Once()

	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Registry: registry, Sink: sink},
		maintenance.Config{}, logger.Discard())
	require.NoError(t, s.RunNow(ctx, maintenance.JobSummaryReport))
}

func TestScheduler_TicksJobs(t *testing.T) {
	store, _ := newStore(t)
	feeds := &countingRefresher{}
	s := maintenance.NewScheduler(maintenance.Deps{Store: store, Feeds: feeds},
		maintenance.Config{FeedInterval: 5 * time.Millisecond}, logger.Discard())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return feeds.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
}
