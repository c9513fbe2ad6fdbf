package scoring

import (
	"context"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Assessment is a scorer's verdict on a set of signals. Scores share the
// [0,100] scale whatever produced them.
type Assessment struct {
	RiskScore         int         `json:"risk_score"`
	Confidence        int         `json:"confidence"`
	Category          string      `json:"category"`
	Reasoning         string      `json:"reasoning"`
	Indicators        []string    `json:"indicators"`
	Recommendation    risk.Action `json:"recommendation"`
	Severity          string      `json:"severity"`
	FalsePositiveRisk string      `json:"false_positive_risk"`
	Source            risk.Source `json:"source"`
	// Degraded is set when the primary scorer failed and rules stood in.
	Degraded bool `json:"degraded"`
}

//go:generate mockery --name=Scorer --dir=. --output=./mocks --filename=scorer_mock.go --case=underscore --with-expecter
type Scorer interface {
	Name() string
	Score(ctx context.Context, s *signals.ThreatSignals) (Assessment, error)
}

func severityFor(score int) string {
	switch {
	case score >= 85:
		return SeverityCritical
	case score >= 70:
		return SeverityHigh
	case score >= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
