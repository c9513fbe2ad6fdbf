package blocking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/logger"
	"github.com/NeuralTrust/IPGuard/pkg/infra/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyRepo fails the first createFailures CreateBlock calls and every
// DeactivateBlock while failDeactivate is set.
type flakyRepo struct {
	block.Repository
	createFailures atomic.Int32
	failDeactivate atomic.Bool
}

func (r *flakyRepo) CreateBlock(ctx context.Context, rec *block.Record, entry *block.HistoryEntry) error {
	if r.createFailures.Load() > 0 {
		r.createFailures.Add(-1)
		return errors.New("connection reset")
	}
	return r.Repository.CreateBlock(ctx, rec, entry)
}

func (r *flakyRepo) DeactivateBlock(ctx context.Context, id uuid.UUID, at time.Time, reason string, entry *block.HistoryEntry) (bool, error) {
	if r.failDeactivate.Load() {
		return false, errors.New("connection reset")
	}
	return r.Repository.DeactivateBlock(ctx, id, at, reason, entry)
}

func newTestStore(t *testing.T, static ...string) (*store, *flakyRepo, *clock) {
	repo := &flakyRepo{Repository: repository.NewMemoryBlockRepository()}
	settings, err := risk.NewSettingsStore(risk.DefaultSettings())
	require.NoError(t, err)
	s, err := NewStore(repo, settings, static, logger.Discard())
	require.NoError(t, err)
	clk := &clock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	st := s.(*store)
	st.now = clk.Now
	require.NoError(t, st.Load(context.Background()))
	return st, repo, clk
}

func countHistory(t *testing.T, s Store, ip string, action block.HistoryAction, reason string) int {
	entries, err := s.History(context.Background(), 0)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.IP == ip && e.Action == action && (reason == "" || e.Reason == reason) {
			n++
		}
	}
	return n
}

func TestStore_BlockAndIsBlocked(t *testing.T) {
	s, _, clk := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Block(ctx, "203.0.113.5", block.Details{Reason: "brute force", RiskScore: 95, Category: risk.CategoryBruteForce})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Offense)
	require.NotNil(t, rec.ExpiresAt)
	assert.Equal(t, clk.Now().Add(24*time.Hour), *rec.ExpiresAt)
	assert.Equal(t, block.OriginAutomatic, rec.Origin)

	assert.True(t, s.IsBlocked(ctx, "203.0.113.5"))
	assert.False(t, s.IsBlocked(ctx, "203.0.113.6"))
	assert.Equal(t, 1, countHistory(t, s, "203.0.113.5", block.HistoryBlocked, ""))
}

func TestStore_LazyExpiryWritesHistoryOnce(t *testing.T) {
	s, _, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.Block(ctx, "203.0.113.5", block.Details{Reason: "test", Duration: time.Hour})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.False(t, s.IsBlocked(ctx, "203.0.113.5"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, countHistory(t, s, "203.0.113.5", block.HistoryUnblocked, block.ReasonExpired))
	n, err := s.ExpireStale(ctx, clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, countHistory(t, s, "203.0.113.5", block.HistoryUnblocked, block.ReasonExpired))
}

func TestStore_LazyExpiryFailureRetriedBySweep(t *testing.T) {
	s, repo, clk := newTestStore(t)
	ctx := context.Background()

	_, err := s.Block(ctx, "203.0.113.5", block.Details{Duration: time.Minute})
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	repo.failDeactivate.Store(true)
	assert.False(t, s.IsBlocked(ctx, "203.0.113.5"))
	assert.Equal(t, 0, countHistory(t, s, "203.0.113.5", block.HistoryUnblocked, ""))

	_, err = s.ExpireStale(ctx, clk.Now())
	assert.Error(t, err)

	repo.failDeactivate.Store(false)
	n, err := s.ExpireStale(ctx, clk.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, countHistory(t, s, "203.0.113.5", block.HistoryUnblocked, block.ReasonExpired))
}

func TestStore_UnblockIsIdempotent(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Block(ctx, "198.51.100.1", block.Details{Permanent: true, Origin: block.OriginManual, Actor: "alice"})
	require.NoError(t, err)

	changed, err := s.Unblock(ctx, "198.51.100.1", "", "alice")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Unblock(ctx, "198.51.100.1", "", "alice")
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, 1, countHistory(t, s, "198.51.100.1", block.HistoryUnblocked, block.ReasonManual))
	assert.False(t, s.IsBlocked(ctx, "198.51.100.1"))
}

func TestStore_PersistFailureLeavesIndexUntouched(t *testing.T) {
	s, repo, _ := newTestStore(t)
	repo.createFailures.Store(1)

	_, err := s.Block(context.Background(), "203.0.113.5", block.Details{})
	assert.Error(t, err)
	assert.False(t, s.IsBlocked(context.Background(), "203.0.113.5"))
}

func TestStore_WhitelistPrecedence(t *testing.T) {
	s, _, _ := newTestStore(t, "10.0.0.0/8")
	ctx := context.Background()

	assert.True(t, s.IsWhitelisted("10.1.2.3"))
	_, err := s.Block(ctx, "10.1.2.3", block.Details{})
	assert.ErrorIs(t, err, risk.ErrWhitelisted)
	assert.False(t, s.IsBlocked(ctx, "10.1.2.3"))
}

func TestStore_AddWhitelistReleasesBlocks(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Block(ctx, "198.51.100.9", block.Details{})
	require.NoError(t, err)

	var changes []Change
	s.OnChange(func(_ context.Context, c Change) { changes = append(changes, c) })

	item, err := s.AddWhitelist(ctx, "198.51.100.0/24", "office", "bob")
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.0/24", item.CIDR)
	assert.Equal(t, "bob", item.AddedBy)

	assert.False(t, s.IsBlocked(ctx, "198.51.100.9"))
	assert.Equal(t, 1, countHistory(t, s, "198.51.100.9", block.HistoryUnblocked, block.ReasonWhitelisted))
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Active)
}

func TestStore_RemoveWhitelist(t *testing.T) {
	s, _, _ := newTestStore(t, "192.0.2.1")
	ctx := context.Background()

	_, err := s.AddWhitelist(ctx, "198.51.100.7", "", "")
	require.NoError(t, err)
	assert.Len(t, s.ListWhitelist(), 2)

	require.NoError(t, s.RemoveWhitelist(ctx, "198.51.100.7"))
	assert.False(t, s.IsWhitelisted("198.51.100.7"))

	assert.ErrorIs(t, s.RemoveWhitelist(ctx, "198.51.100.7"), risk.ErrNotWhitelisted)
	assert.ErrorIs(t, s.RemoveWhitelist(ctx, "192.0.2.1"), ErrStaticWhitelist)
	assert.ErrorIs(t, s.RemoveWhitelist(ctx, "nope"), risk.ErrInvalidIP)
}

func TestStore_OffenseCountAndLoad(t *testing.T) {
	s, repo, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Block(ctx, "203.0.113.5", block.Details{})
		require.NoError(t, err)
		_, err = s.Unblock(ctx, "203.0.113.5", "", "")
		require.NoError(t, err)
	}
	rec, err := s.Block(ctx, "203.0.113.5", block.Details{Permanent: true})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Offense)
	assert.True(t, rec.IsPermanent())

	n, err := s.OffenseCount(ctx, "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	settings, _ := risk.NewSettingsStore(risk.DefaultSettings())
	fresh, err := NewStore(repo, settings, nil, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, fresh.Load(ctx))
	assert.True(t, fresh.IsBlocked(ctx, "203.0.113.5"))
	assert.Len(t, fresh.ListActive(ctx), 1)
}

func TestStore_ConcurrentBlockKeepsOneActive(t *testing.T) {
	s, repo, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Block(ctx, "203.0.113.5", block.Details{})
		}()
	}
	wg.Wait()

	active, err := repo.ListActiveBlocks(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Len(t, s.ListActive(ctx), 1)
}
