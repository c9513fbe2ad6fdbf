package blocking

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/common"
	"github.com/NeuralTrust/IPGuard/pkg/common/keylock"
	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	domain "github.com/NeuralTrust/IPGuard/pkg/domain/errors"
	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/infra/prometheus"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

var ErrStaticWhitelist = errors.New("whitelist entry comes from configuration")

// Change describes a committed block state change.
type Change struct {
	IP     string
	Active bool
	Record *block.Record
	Reason string
	Actor  string
}

// Hook observes committed changes. Hooks run synchronously after the index
// is updated and must not call back into the store for the same IP.
type Hook func(ctx context.Context, c Change)

//go:generate mockery --name=Store --dir=. --output=./mocks --filename=store_mock.go --case=underscore --with-expecter
type Store interface {
	Load(ctx context.Context) error
	IsWhitelisted(ip string) bool
	IsBlocked(ctx context.Context, ip string) bool
	ActiveBlock(ctx context.Context, ip string) (*block.Record, bool)
	Block(ctx context.Context, ip string, d block.Details) (*block.Record, error)
	Unblock(ctx context.Context, ip, reason, actor string) (bool, error)
	ListActive(ctx context.Context) []*block.Record
	ExpireStale(ctx context.Context, now time.Time) (int, error)
	History(ctx context.Context, limit int) ([]*block.HistoryEntry, error)
	HistorySince(ctx context.Context, since time.Time) ([]*block.HistoryEntry, error)
	TrimHistory(ctx context.Context, keep int) (int64, error)
	OffenseCount(ctx context.Context, ip string) (int, error)
	AddWhitelist(ctx context.Context, cidr, note, actor string) (WhitelistItem, error)
	RemoveWhitelist(ctx context.Context, cidr string) error
	ListWhitelist() []WhitelistItem
	OnChange(h Hook)
}

type store struct {
	repo     block.Repository
	settings *risk.SettingsStore
	logger   *logrus.Logger
	locks    *keylock.Sharded
	now      func() time.Time

	static    []netip.Prefix
	whitelist atomic.Pointer[whitelistIndex]
	wlMu      sync.Mutex

	mu     sync.RWMutex
	active map[string]*block.Record

	hookMu sync.RWMutex
	hooks  []Hook
}

// NewStore builds an empty store. Call Load before serving traffic.
func NewStore(
	repo block.Repository,
	settings *risk.SettingsStore,
	staticWhitelist []string,
	logger *logrus.Logger,
) (Store, error) {
	s := &store{
		repo:     repo,
		settings: settings,
		logger:   logger,
		locks:    keylock.New(0),
		now:      time.Now,
		active:   make(map[string]*block.Record),
	}
	for _, raw := range staticWhitelist {
		p, err := block.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("static whitelist: %w", err)
		}
		s.static = append(s.static, p)
	}
	s.whitelist.Store(buildWhitelist(s.static, nil))
	return s, nil
}

func (s *store) OnChange(h Hook) {
	s.hookMu.Lock()
	s.hooks = append(s.hooks, h)
	s.hookMu.Unlock()
}

func (s *store) emit(ctx context.Context, c Change) {
	s.hookMu.RLock()
	hooks := s.hooks
	s.hookMu.RUnlock()
	for _, h := range hooks {
		h(ctx, c)
	}
}

// Load replaces the in-memory indexes with the repository contents. It is
// used at start and whenever another instance reports a change.
func (s *store) Load(ctx context.Context) error {
	if err := s.reloadWhitelist(ctx); err != nil {
		return err
	}
	records, err := s.repo.ListActiveBlocks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active blocks: %w", err)
	}
	active := make(map[string]*block.Record, len(records))
	for _, r := range records {
		active[r.IP] = r
	}
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
	prometheus.ActiveBlocks.Set(float64(len(active)))
	return nil
}

func (s *store) reloadWhitelist(ctx context.Context) error {
	stored, err := s.repo.ListWhitelist(ctx)
	if err != nil {
		return fmt.Errorf("failed to load whitelist: %w", err)
	}
	s.whitelist.Store(buildWhitelist(s.static, stored))
	return nil
}

func (s *store) IsWhitelisted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return s.whitelist.Load().contains(addr.Unmap())
}

func (s *store) IsBlocked(ctx context.Context, ip string) bool {
	_, ok := s.ActiveBlock(ctx, ip)
	return ok
}

// ActiveBlock returns a copy of the active record for ip. An expired record
// is deactivated on the spot; if that cannot be persisted the IP is reported
// as not blocked and the sweep retries later.
func (s *store) ActiveBlock(ctx context.Context, ip string) (*block.Record, bool) {
	if s.IsWhitelisted(ip) {
		return nil, false
	}
	rec := s.lookup(ip)
	if rec == nil {
		return nil, false
	}
	if !rec.ExpiredAt(s.now()) {
		return rec.Clone(), true
	}

	var (
		out   *block.Record
		found bool
	)
	s.locks.With(ip, func() {
		cur := s.lookup(ip)
		if cur == nil {
			return
		}
		if !cur.ExpiredAt(s.now()) {
			out, found = cur.Clone(), true
			return
		}
		if _, err := s.deactivate(ctx, ip, block.ReasonExpired, common.SystemActor); err != nil {
			s.logger.WithError(err).WithField("ip", ip).Error("failed to persist block expiry")
		}
	})
	return out, found
}

func (s *store) lookup(ip string) *block.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[ip]
}

func (s *store) Block(ctx context.Context, ip string, d block.Details) (*block.Record, error) {
	if s.IsWhitelisted(ip) {
		return nil, fmt.Errorf("block %s: %w", ip, risk.ErrWhitelisted)
	}
	if d.Origin == "" {
		d.Origin = block.OriginAutomatic
	}
	if d.Actor == "" {
		d.Actor = common.SystemActor
	}

	var (
		out *block.Record
		err error
	)
	s.locks.With(ip, func() {
		out, err = s.block(ctx, ip, d)
	})
	return out, err
}

func (s *store) block(ctx context.Context, ip string, d block.Details) (*block.Record, error) {
	now := s.now()
	prior, err := s.repo.CountTemporaryBlocks(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to count offenses for %s: %w", ip, err)
	}

	rec := &block.Record{
		IP:         ip,
		Reason:     d.Reason,
		RiskScore:  risk.ClampScore(d.RiskScore),
		Category:   d.Category,
		Country:    d.Country,
		Indicators: pq.StringArray(append([]string(nil), d.Indicators...)),
		Origin:     d.Origin,
		Offense:    prior + 1,
		Active:     true,
		CreatedAt:  now,
	}
	if !d.Permanent {
		duration := d.Duration
		if duration <= 0 {
			duration = s.settings.Get().TemporaryBlockDuration
		}
		expires := now.Add(duration)
		rec.ExpiresAt = &expires
	}

	entry := &block.HistoryEntry{
		IP:        ip,
		Action:    block.HistoryBlocked,
		Reason:    d.Reason,
		Actor:     d.Actor,
		Category:  d.Category,
		Origin:    d.Origin,
		RiskScore: rec.RiskScore,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: now,
	}
	if err := s.repo.CreateBlock(ctx, rec, entry); err != nil {
		return nil, fmt.Errorf("failed to persist block for %s: %w", ip, err)
	}

	s.mu.Lock()
	s.active[ip] = rec.Clone()
	n := len(s.active)
	s.mu.Unlock()

	kind := "temporary"
	if rec.IsPermanent() {
		kind = "permanent"
	}
	prometheus.BlocksTotal.WithLabelValues(string(rec.Origin), kind).Inc()
	prometheus.ActiveBlocks.Set(float64(n))
	s.logger.WithFields(logrus.Fields{
		"ip":        ip,
		"origin":    rec.Origin,
		"offense":   rec.Offense,
		"permanent": rec.IsPermanent(),
		"score":     rec.RiskScore,
		"category":  rec.Category,
	}).Warn("ip blocked")

	s.emit(ctx, Change{IP: ip, Active: true, Record: rec.Clone(), Reason: d.Reason, Actor: d.Actor})
	return rec.Clone(), nil
}

// Unblock is idempotent: it reports false when there was nothing to release.
func (s *store) Unblock(ctx context.Context, ip, reason, actor string) (bool, error) {
	if actor == "" {
		actor = common.SystemActor
	}
	if reason == "" {
		reason = block.ReasonManual
	}
	var (
		changed bool
		err     error
	)
	s.locks.With(ip, func() {
		changed, err = s.deactivate(ctx, ip, reason, actor)
	})
	return changed, err
}

// deactivate must be called with the IP's lock held.
func (s *store) deactivate(ctx context.Context, ip, reason, actor string) (bool, error) {
	rec := s.lookup(ip)
	if rec == nil {
		return false, nil
	}
	now := s.now()
	entry := &block.HistoryEntry{
		IP:        ip,
		Action:    block.HistoryUnblocked,
		Reason:    reason,
		Actor:     actor,
		Category:  rec.Category,
		Origin:    rec.Origin,
		RiskScore: rec.RiskScore,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: now,
	}
	changed, err := s.repo.DeactivateBlock(ctx, rec.ID, now, reason, entry)
	if err != nil {
		return false, fmt.Errorf("failed to persist unblock for %s: %w", ip, err)
	}

	s.mu.Lock()
	if cur, ok := s.active[ip]; ok && cur.ID == rec.ID {
		delete(s.active, ip)
	}
	n := len(s.active)
	s.mu.Unlock()
	prometheus.ActiveBlocks.Set(float64(n))

	if !changed {
		return false, nil
	}
	prometheus.UnblocksTotal.WithLabelValues(reason).Inc()
	s.logger.WithFields(logrus.Fields{
		"ip":     ip,
		"reason": reason,
		"actor":  actor,
	}).Info("ip unblocked")

	released := rec.Clone()
	released.Active = false
	released.DeactivatedAt = &now
	released.DeactivationReason = reason
	s.emit(ctx, Change{IP: ip, Active: false, Record: released, Reason: reason, Actor: actor})
	return true, nil
}

func (s *store) ListActive(ctx context.Context) []*block.Record {
	s.mu.RLock()
	ips := make([]string, 0, len(s.active))
	for ip := range s.active {
		ips = append(ips, ip)
	}
	s.mu.RUnlock()

	out := make([]*block.Record, 0, len(ips))
	for _, ip := range ips {
		if rec, ok := s.ActiveBlock(ctx, ip); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ExpireStale deactivates every record whose expiry is at or before now. It
// keeps going past individual failures and returns the first one.
func (s *store) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	var due []string
	for ip, rec := range s.active {
		if rec.ExpiredAt(now) {
			due = append(due, ip)
		}
	}
	s.mu.RUnlock()

	expired := 0
	var firstErr error
	for _, ip := range due {
		s.locks.With(ip, func() {
			rec := s.lookup(ip)
			if rec == nil || !rec.ExpiredAt(now) {
				return
			}
			changed, err := s.deactivate(ctx, ip, block.ReasonExpired, common.SystemActor)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if changed {
				expired++
			}
		})
	}
	return expired, firstErr
}

func (s *store) History(ctx context.Context, limit int) ([]*block.HistoryEntry, error) {
	return s.repo.ListHistory(ctx, limit)
}

func (s *store) HistorySince(ctx context.Context, since time.Time) ([]*block.HistoryEntry, error) {
	return s.repo.HistorySince(ctx, since)
}

func (s *store) TrimHistory(ctx context.Context, keep int) (int64, error) {
	return s.repo.TrimHistory(ctx, keep)
}

func (s *store) OffenseCount(ctx context.Context, ip string) (int, error) {
	return s.repo.CountTemporaryBlocks(ctx, ip)
}

// AddWhitelist stores the entry and releases any active block it covers.
func (s *store) AddWhitelist(ctx context.Context, cidr, note, actor string) (WhitelistItem, error) {
	p, err := block.ParsePrefix(cidr)
	if err != nil {
		return WhitelistItem{}, fmt.Errorf("%w: %v", risk.ErrInvalidIP, err)
	}
	canonical := block.CanonicalCIDR(p)
	if actor == "" {
		actor = common.SystemActor
	}

	s.wlMu.Lock()
	if err := s.repo.SaveWhitelist(ctx, &block.WhitelistEntry{CIDR: canonical, Note: note, AddedBy: actor}); err != nil {
		s.wlMu.Unlock()
		return WhitelistItem{}, fmt.Errorf("failed to save whitelist entry: %w", err)
	}
	err = s.reloadWhitelist(ctx)
	s.wlMu.Unlock()
	if err != nil {
		return WhitelistItem{}, err
	}

	s.mu.RLock()
	var covered []string
	for ip := range s.active {
		if addr, perr := netip.ParseAddr(ip); perr == nil && p.Contains(addr.Unmap()) {
			covered = append(covered, ip)
		}
	}
	s.mu.RUnlock()
	for _, ip := range covered {
		if _, err := s.Unblock(ctx, ip, block.ReasonWhitelisted, actor); err != nil {
			s.logger.WithError(err).WithField("ip", ip).Error("failed to release block for whitelisted ip")
		}
	}

	item, _ := s.whitelist.Load().find(canonical)
	return item.item, nil
}

func (s *store) RemoveWhitelist(ctx context.Context, cidr string) error {
	p, err := block.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("%w: %v", risk.ErrInvalidIP, err)
	}
	canonical := block.CanonicalCIDR(p)

	s.wlMu.Lock()
	defer s.wlMu.Unlock()
	if e, ok := s.whitelist.Load().find(canonical); ok && e.item.Static {
		return fmt.Errorf("remove %s: %w", canonical, ErrStaticWhitelist)
	}
	if err := s.repo.DeleteWhitelist(ctx, canonical); err != nil {
		if domain.IsNotFoundError(err) {
			return fmt.Errorf("remove %s: %w", canonical, risk.ErrNotWhitelisted)
		}
		return fmt.Errorf("failed to delete whitelist entry: %w", err)
	}
	return s.reloadWhitelist(ctx)
}

func (s *store) ListWhitelist() []WhitelistItem {
	idx := s.whitelist.Load()
	out := make([]WhitelistItem, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e.item)
	}
	return out
}
