package repository

import (
	"context"
	"errors"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/block"
	domain "github.com/NeuralTrust/IPGuard/pkg/domain/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type blockRepository struct {
	db *gorm.DB
}

func NewBlockRepository(db *gorm.DB) block.Repository {
	return &blockRepository{
		db: db,
	}
}

func (r *blockRepository) CreateBlock(ctx context.Context, rec *block.Record, entry *block.HistoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&block.Record{}).
			Where("ip = ? AND active", rec.IP).
			Updates(map[string]interface{}{
				"active":              false,
				"deactivated_at":      rec.CreatedAt,
				"deactivation_reason": block.ReasonSuperseded,
			}).Error; err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *blockRepository) DeactivateBlock(
	ctx context.Context,
	id uuid.UUID,
	at time.Time,
	reason string,
	entry *block.HistoryEntry,
) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&block.Record{}).
			Where("id = ? AND active", id).
			Updates(map[string]interface{}{
				"active":              false,
				"deactivated_at":      at,
				"deactivation_reason": reason,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		changed = true
		return tx.Create(entry).Error
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *blockRepository) ListActiveBlocks(ctx context.Context) ([]*block.Record, error) {
	var records []*block.Record
	if err := r.db.WithContext(ctx).
		Where("active").
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *blockRepository) CountTemporaryBlocks(ctx context.Context, ip string) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&block.Record{}).
		Where("ip = ? AND expires_at IS NOT NULL", ip).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *blockRepository) ListHistory(ctx context.Context, limit int) ([]*block.HistoryEntry, error) {
	var entries []*block.HistoryEntry
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *blockRepository) HistorySince(ctx context.Context, since time.Time) ([]*block.HistoryEntry, error) {
	var entries []*block.HistoryEntry
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *blockRepository) TrimHistory(ctx context.Context, keep int) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM blocking_history
		WHERE id NOT IN (
			SELECT id FROM blocking_history ORDER BY created_at DESC LIMIT ?
		)`, keep)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *blockRepository) SaveWhitelist(ctx context.Context, entry *block.WhitelistEntry) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cidr"}},
		DoUpdates: clause.AssignmentColumns([]string{"note", "added_by"}),
	}).Create(entry).Error
}

func (r *blockRepository) DeleteWhitelist(ctx context.Context, cidr string) error {
	result := r.db.WithContext(ctx).
		Where("cidr = ?", cidr).
		Delete(&block.WhitelistEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("whitelist entry", cidr)
	}
	return nil
}

func (r *blockRepository) ListWhitelist(ctx context.Context) ([]*block.WhitelistEntry, error) {
	var entries []*block.WhitelistEntry
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&entries).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}
