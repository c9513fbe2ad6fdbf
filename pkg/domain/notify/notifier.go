package notify

import (
	"context"
	"time"
)

type EventType string

const (
	EventBlocked   EventType = "ip.blocked"
	EventUnblocked EventType = "ip.unblocked"
	EventReview    EventType = "ip.review"
)

// Event is what collaborators are told about enforcement changes.
type Event struct {
	Type       EventType  `json:"type"`
	IP         string     `json:"ip"`
	RiskScore  int        `json:"risk_score"`
	Category   string     `json:"category,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	Indicators []string   `json:"indicators,omitempty"`
	Origin     string     `json:"origin,omitempty"`
	Actor      string     `json:"actor,omitempty"`
	Permanent  bool       `json:"permanent"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

//go:generate mockery --name=Notifier --dir=. --output=./mocks --filename=notifier_mock.go --case=underscore --with-expecter
type Notifier interface {
	Name() string
	ValidateConfig(settings map[string]interface{}) error
	WithSettings(settings map[string]interface{}) (Notifier, error)
	Notify(ctx context.Context, evt Event) error
	Close()
}
