package block

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Origin string

const (
	OriginAutomatic Origin = "automatic"
	OriginManual    Origin = "manual"
)

const (
	ReasonExpired     = "expired"
	ReasonWhitelisted = "whitelisted"
	ReasonSuperseded  = "superseded"
	ReasonManual      = "manual unblock"
)

// Record is a row of blocked_ips. Only one row per IP may be active.
type Record struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	IP                 string         `json:"ip" gorm:"type:varchar(45);not null;index"`
	Reason             string         `json:"reason" gorm:"type:text"`
	RiskScore          int            `json:"risk_score"`
	Category           string         `json:"category" gorm:"type:varchar(64)"`
	Country            string         `json:"country,omitempty" gorm:"type:varchar(8)"`
	Indicators         pq.StringArray `json:"indicators" gorm:"type:text[]"`
	Origin             Origin         `json:"origin" gorm:"type:varchar(16);not null"`
	Offense            int            `json:"offense"`
	Active             bool           `json:"active" gorm:"not null;default:true"`
	CreatedAt          time.Time      `json:"created_at"`
	ExpiresAt          *time.Time     `json:"expires_at"`
	DeactivatedAt      *time.Time     `json:"deactivated_at,omitempty"`
	DeactivationReason string         `json:"deactivation_reason,omitempty" gorm:"type:text"`
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return nil
}

func (r *Record) TableName() string {
	return "blocked_ips"
}

func (r *Record) IsPermanent() bool {
	return r.ExpiresAt == nil
}

func (r *Record) ExpiredAt(now time.Time) bool {
	return r.ExpiresAt != nil && !now.Before(*r.ExpiresAt)
}

// Clone returns a copy that shares no mutable state with r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Indicators != nil {
		c.Indicators = append(pq.StringArray(nil), r.Indicators...)
	}
	if r.ExpiresAt != nil {
		t := *r.ExpiresAt
		c.ExpiresAt = &t
	}
	if r.DeactivatedAt != nil {
		t := *r.DeactivatedAt
		c.DeactivatedAt = &t
	}
	return &c
}

// Details describes a block request.
type Details struct {
	Reason     string
	RiskScore  int
	Category   string
	Country    string
	Indicators []string
	Origin     Origin
	Actor      string
	// Duration overrides the configured temporary duration when positive.
	Duration  time.Duration
	Permanent bool
}
