package block

import (
	"context"
	"time"

	"github.com/google/uuid"
)

//go:generate mockery --name=Repository --dir=. --output=./mocks --filename=block_repository_mock.go --case=underscore --with-expecter
type Repository interface {
	// CreateBlock deactivates any active row for rec.IP, inserts rec and
	// appends entry in one transaction.
	CreateBlock(ctx context.Context, rec *Record, entry *HistoryEntry) error
	// DeactivateBlock flips the row identified by id to inactive only if it
	// is still active, and appends entry when it did. It reports whether a
	// row changed.
	DeactivateBlock(ctx context.Context, id uuid.UUID, at time.Time, reason string, entry *HistoryEntry) (bool, error)
	ListActiveBlocks(ctx context.Context) ([]*Record, error)
	CountTemporaryBlocks(ctx context.Context, ip string) (int, error)

	ListHistory(ctx context.Context, limit int) ([]*HistoryEntry, error)
	HistorySince(ctx context.Context, since time.Time) ([]*HistoryEntry, error)
	TrimHistory(ctx context.Context, keep int) (int64, error)

	SaveWhitelist(ctx context.Context, entry *WhitelistEntry) error
	DeleteWhitelist(ctx context.Context, cidr string) error
	ListWhitelist(ctx context.Context) ([]*WhitelistEntry, error)
}
