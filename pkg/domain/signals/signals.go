package signals

import (
	"context"
	"time"
)

// Location is the geolocation view of an IP.
type Location struct {
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	ASN       uint   `json:"asn,omitempty"`
	Org       string `json:"org,omitempty"`
	IsTor     bool   `json:"is_tor"`
	IsProxy   bool   `json:"is_proxy"`
	IsVPN     bool   `json:"is_vpn"`
	IsHosting bool   `json:"is_hosting"`
}

func (l *Location) IsAnonymizer() bool {
	return l != nil && (l.IsTor || l.IsProxy || l.IsVPN || l.IsHosting)
}

// Reputation is what reputation sources know about an IP.
type Reputation struct {
	RiskScore  int      `json:"risk_score"`
	Category   string   `json:"category,omitempty"`
	Indicators []string `json:"indicators,omitempty"`
	Source     string   `json:"source,omitempty"`
	FeedHit    bool     `json:"feed_hit"`
	Feeds      []string `json:"feeds,omitempty"`
}

// ActivityPatterns summarises an IP's recent behaviour.
type ActivityPatterns struct {
	TotalRequests      int       `json:"total_requests"`
	TotalFailures      int       `json:"total_failures"`
	RequestsLastMinute int       `json:"requests_last_minute"`
	FailuresLastHour   int       `json:"failures_last_hour"`
	DistinctUserAgents int       `json:"distinct_user_agents"`
	DistinctEndpoints  int       `json:"distinct_endpoints"`
	FirstSeen          time.Time `json:"first_seen,omitempty"`
	LastSeen           time.Time `json:"last_seen,omitempty"`
}

type Contextual struct {
	IsFirstVisit        bool   `json:"is_first_visit"`
	HasValidSession     bool   `json:"has_valid_session"`
	SuspiciousUserAgent bool   `json:"suspicious_user_agent"`
	UserAgent           string `json:"user_agent,omitempty"`
	Browser             string `json:"browser,omitempty"`
	OS                  string `json:"os,omitempty"`
	DeviceType          string `json:"device_type,omitempty"`
}

// ThreatSignals is the partial view gathered for one IP. Nil fields mean the
// lookup failed or timed out.
type ThreatSignals struct {
	IP         string            `json:"ip"`
	Location   *Location         `json:"location,omitempty"`
	Reputation *Reputation       `json:"reputation,omitempty"`
	Activity   *ActivityPatterns `json:"activity,omitempty"`
	Contextual Contextual        `json:"contextual"`
	Errors     []string          `json:"errors,omitempty"`
	GatheredAt time.Time         `json:"gathered_at"`
}

func (t *ThreatSignals) Partial() bool {
	return len(t.Errors) > 0
}

//go:generate mockery --name=GeoProvider --dir=. --output=./mocks --filename=geo_provider_mock.go --case=underscore --with-expecter
type GeoProvider interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

//go:generate mockery --name=ReputationProvider --dir=. --output=./mocks --filename=reputation_provider_mock.go --case=underscore --with-expecter
type ReputationProvider interface {
	Lookup(ctx context.Context, ip string) (*Reputation, error)
}
