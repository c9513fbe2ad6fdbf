package risk

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

type Thresholds struct {
	AutoBlock int `mapstructure:"auto_block" json:"auto_block"`
	Review    int `mapstructure:"review" json:"review"`
	Monitor   int `mapstructure:"monitor" json:"monitor"`
}

type Penalties struct {
	BlockedCountry   int     `mapstructure:"blocked_country" json:"blocked_country"`
	Anonymizer       int     `mapstructure:"anonymizer" json:"anonymizer"`
	ReputationWeight float64 `mapstructure:"reputation_weight" json:"reputation_weight"`
	FeedHit          int     `mapstructure:"feed_hit" json:"feed_hit"`
	RequestRate      int     `mapstructure:"request_rate" json:"request_rate"`
	FailedAttempts   int     `mapstructure:"failed_attempts" json:"failed_attempts"`
	UserAgentSpread  int     `mapstructure:"user_agent_spread" json:"user_agent_spread"`
}

// Adjustments are the contextual multipliers applied after scoring.
type Adjustments struct {
	LowScoreCeiling        int     `mapstructure:"low_score_ceiling" json:"low_score_ceiling"`
	FirstVisitMultiplier   float64 `mapstructure:"first_visit_multiplier" json:"first_visit_multiplier"`
	ValidSessionMultiplier float64 `mapstructure:"valid_session_multiplier" json:"valid_session_multiplier"`
	SuspiciousUAMultiplier float64 `mapstructure:"suspicious_ua_multiplier" json:"suspicious_ua_multiplier"`
}

type Triggers struct {
	BatchSize        int `mapstructure:"batch_size" json:"batch_size"`
	FailedTrigger    int `mapstructure:"failed_trigger" json:"failed_trigger"`
	UserAgentTrigger int `mapstructure:"user_agent_trigger" json:"user_agent_trigger"`
}

type Settings struct {
	Thresholds               Thresholds    `mapstructure:"thresholds" json:"thresholds"`
	Penalties                Penalties     `mapstructure:"penalties" json:"penalties"`
	Adjustments              Adjustments   `mapstructure:"adjustments" json:"adjustments"`
	Triggers                 Triggers      `mapstructure:"triggers" json:"triggers"`
	MaxRequestsPerMinute     int           `mapstructure:"max_requests_per_minute" json:"max_requests_per_minute"`
	MaxFailedAttemptsPerHour int           `mapstructure:"max_failed_attempts_per_hour" json:"max_failed_attempts_per_hour"`
	MaxUserAgents            int           `mapstructure:"max_user_agents" json:"max_user_agents"`
	TemporaryBlockDuration   time.Duration `mapstructure:"temporary_block_duration" json:"temporary_block_duration"`
	PermanentBlockThreshold  int           `mapstructure:"permanent_block_threshold" json:"permanent_block_threshold"`
	BlockedCountries         []string      `mapstructure:"blocked_countries" json:"blocked_countries"`
	DecisionTTL              time.Duration `mapstructure:"decision_ttl" json:"decision_ttl"`
	DegradedTTL              time.Duration `mapstructure:"degraded_ttl" json:"degraded_ttl"`
	ActivityRecordCap        int           `mapstructure:"activity_record_cap" json:"activity_record_cap"`
	PersistRetries           int           `mapstructure:"persist_retries" json:"persist_retries"`
	PersistBackoff           time.Duration `mapstructure:"persist_backoff" json:"persist_backoff"`
	AnalysisTimeout          time.Duration `mapstructure:"analysis_timeout" json:"analysis_timeout"`
	LookupTimeout            time.Duration `mapstructure:"lookup_timeout" json:"lookup_timeout"`
	ScorerTimeout            time.Duration `mapstructure:"scorer_timeout" json:"scorer_timeout"`
}

func DefaultSettings() Settings {
	return Settings{
		Thresholds: Thresholds{AutoBlock: 85, Review: 70, Monitor: 30},
		Penalties: Penalties{
			BlockedCountry:   30,
			Anonymizer:       25,
			ReputationWeight: 0.5,
			FeedHit:          20,
			RequestRate:      20,
			FailedAttempts:   90,
			UserAgentSpread:  15,
		},
		Adjustments: Adjustments{
			LowScoreCeiling:        30,
			FirstVisitMultiplier:   0.8,
			ValidSessionMultiplier: 0.7,
			SuspiciousUAMultiplier: 1.3,
		},
		Triggers:                 Triggers{BatchSize: 20, FailedTrigger: 5, UserAgentTrigger: 5},
		MaxRequestsPerMinute:     60,
		MaxFailedAttemptsPerHour: 5,
		MaxUserAgents:            5,
		TemporaryBlockDuration:   24 * time.Hour,
		PermanentBlockThreshold:  3,
		DecisionTTL:              time.Hour,
		DegradedTTL:              time.Hour,
		ActivityRecordCap:        100,
		PersistRetries:           3,
		PersistBackoff:           200 * time.Millisecond,
		AnalysisTimeout:          10 * time.Second,
		LookupTimeout:            3 * time.Second,
		ScorerTimeout:            5 * time.Second,
	}
}

func (s Settings) Validate() error {
	t := s.Thresholds
	if t.Monitor < 0 || t.AutoBlock > 100 || !(t.Monitor <= t.Review && t.Review <= t.AutoBlock) {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= monitor <= review <= auto_block <= 100", ErrInvalidSettings)
	}
	if s.TemporaryBlockDuration <= 0 {
		return fmt.Errorf("%w: temporary_block_duration must be positive", ErrInvalidSettings)
	}
	if s.PermanentBlockThreshold < 1 {
		return fmt.Errorf("%w: permanent_block_threshold must be at least 1", ErrInvalidSettings)
	}
	if s.ActivityRecordCap < 1 {
		return fmt.Errorf("%w: activity_record_cap must be at least 1", ErrInvalidSettings)
	}
	if s.DecisionTTL <= 0 || s.DegradedTTL <= 0 {
		return fmt.Errorf("%w: cache ttls must be positive", ErrInvalidSettings)
	}
	return nil
}

// ActionFor maps a final score to an action. The thresholds partition [0,100]
// so every score lands in exactly one bucket.
func (s Settings) ActionFor(score int) Action {
	switch {
	case score >= s.Thresholds.AutoBlock:
		return ActionBlock
	case score >= s.Thresholds.Review:
		return ActionReview
	case score >= s.Thresholds.Monitor:
		return ActionMonitor
	default:
		return ActionAllow
	}
}

func (s Settings) IsBlockedCountry(country string) bool {
	if country == "" {
		return false
	}
	for _, c := range s.BlockedCountries {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

// SettingsStore publishes Settings to concurrent readers. Readers always see a
// complete snapshot.
type SettingsStore struct {
	current atomic.Pointer[Settings]
}

func NewSettingsStore(s Settings) (*SettingsStore, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	store := &SettingsStore{}
	store.current.Store(&s)
	return store, nil
}

func (s *SettingsStore) Get() Settings {
	return *s.current.Load()
}

func (s *SettingsStore) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}
