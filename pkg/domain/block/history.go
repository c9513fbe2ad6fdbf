package block

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HistoryAction string

const (
	HistoryBlocked   HistoryAction = "blocked"
	HistoryUnblocked HistoryAction = "unblocked"
)

// HistoryEntry is an append-only row of blocking_history.
type HistoryEntry struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	IP        string        `json:"ip" gorm:"type:varchar(45);not null;index"`
	Action    HistoryAction `json:"action" gorm:"type:varchar(16);not null"`
	Reason    string        `json:"reason" gorm:"type:text"`
	Actor     string        `json:"actor" gorm:"type:varchar(128)"`
	Category  string        `json:"category,omitempty" gorm:"type:varchar(64)"`
	Origin    Origin        `json:"origin,omitempty" gorm:"type:varchar(16)"`
	RiskScore int           `json:"risk_score"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	CreatedAt time.Time     `json:"created_at" gorm:"index"`
}

func (h *HistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	return nil
}

func (h *HistoryEntry) TableName() string {
	return "blocking_history"
}
