package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	domain "github.com/NeuralTrust/IPGuard/pkg/domain/errors"
	"github.com/google/uuid"
)

// memoryBlockRepository keeps everything in process. It backs the "memory"
// database driver and tests.
type memoryBlockRepository struct {
	mu        sync.Mutex
	records   []*block.Record
	history   []*block.HistoryEntry
	whitelist map[string]*block.WhitelistEntry
}

func NewMemoryBlockRepository() block.Repository {
	return &memoryBlockRepository{
		whitelist: make(map[string]*block.WhitelistEntry),
	}
}

func (r *memoryBlockRepository) CreateBlock(_ context.Context, rec *block.Record, entry *block.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	for _, existing := range r.records {
		if existing.IP == rec.IP && existing.Active {
			at := rec.CreatedAt
			existing.Active = false
			existing.DeactivatedAt = &at
			existing.DeactivationReason = block.ReasonSuperseded
		}
	}
	r.records = append(r.records, rec.Clone())
	r.appendHistory(entry)
	return nil
}

func (r *memoryBlockRepository) DeactivateBlock(
	_ context.Context,
	id uuid.UUID,
	at time.Time,
	reason string,
	entry *block.HistoryEntry,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id && rec.Active {
			rec.Active = false
			rec.DeactivatedAt = &at
			rec.DeactivationReason = reason
			r.appendHistory(entry)
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryBlockRepository) appendHistory(entry *block.HistoryEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	cp := *entry
	r.history = append(r.history, &cp)
}

func (r *memoryBlockRepository) ListActiveBlocks(_ context.Context) ([]*block.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*block.Record
	for _, rec := range r.records {
		if rec.Active {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (r *memoryBlockRepository) CountTemporaryBlocks(_ context.Context, ip string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, rec := range r.records {
		if rec.IP == ip && rec.ExpiresAt != nil {
			n++
		}
	}
	return n, nil
}

func (r *memoryBlockRepository) ListHistory(_ context.Context, limit int) ([]*block.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*block.HistoryEntry, 0, len(r.history))
	for i := len(r.history) - 1; i >= 0; i-- {
		cp := *r.history[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryBlockRepository) HistorySince(_ context.Context, since time.Time) ([]*block.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*block.HistoryEntry
	for _, h := range r.history {
		if !h.CreatedAt.Before(since) {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryBlockRepository) TrimHistory(_ context.Context, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keep < 0 || len(r.history) <= keep {
		return 0, nil
	}
	removed := len(r.history) - keep
	r.history = append([]*block.HistoryEntry(nil), r.history[removed:]...)
	return int64(removed), nil
}

func (r *memoryBlockRepository) SaveWhitelist(_ context.Context, entry *block.WhitelistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.whitelist[entry.CIDR]; ok {
		existing.Note = entry.Note
		existing.AddedBy = entry.AddedBy
		return nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	cp := *entry
	r.whitelist[entry.CIDR] = &cp
	return nil
}

func (r *memoryBlockRepository) DeleteWhitelist(_ context.Context, cidr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.whitelist[cidr]; !ok {
		return domain.NewNotFoundError("whitelist entry", cidr)
	}
	delete(r.whitelist, cidr)
	return nil
}

func (r *memoryBlockRepository) ListWhitelist(_ context.Context) ([]*block.WhitelistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*block.WhitelistEntry, 0, len(r.whitelist))
	for _, e := range r.whitelist {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
