package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
)

const (
	baseConfidence    = 60
	confidencePerRule = 10
	maxRuleConfidence = 90
)

type ruleScorer struct {
	settings *risk.SettingsStore
}

// NewRuleScorer scores from fixed penalties only. The same signals and
// settings always give the same assessment.
func NewRuleScorer(settings *risk.SettingsStore) Scorer {
	return &ruleScorer{settings: settings}
}

func (r *ruleScorer) Name() string { return string(risk.SourceRules) }

type contribution struct {
	points    int
	category  string
	indicator string
}

func (r *ruleScorer) Score(_ context.Context, s *signals.ThreatSignals) (Assessment, error) {
	cfg := r.settings.Get()
	p := cfg.Penalties
	var hits []contribution

	if loc := s.Location; loc != nil {
		if cfg.IsBlockedCountry(loc.Country) {
			hits = append(hits, contribution{p.BlockedCountry, risk.CategoryGeoRestricted,
				fmt.Sprintf("country %s is on the block list", strings.ToUpper(loc.Country))})
		}
		if loc.IsAnonymizer() {
			hits = append(hits, contribution{p.Anonymizer, risk.CategoryAnonymizer,
				"anonymizing network (" + anonymizerKinds(loc) + ")"})
		}
	}
	if rep := s.Reputation; rep != nil {
		if pts := int(math.Round(float64(rep.RiskScore) * p.ReputationWeight)); pts > 0 {
			cat := rep.Category
			if cat == "" || cat == risk.CategoryClean {
				cat = risk.CategoryAbuse
			}
			src := rep.Source
			if src == "" {
				src = "reputation provider"
			}
			hits = append(hits, contribution{pts, cat,
				fmt.Sprintf("reputation score %d from %s", rep.RiskScore, src)})
		}
		if rep.FeedHit {
			hits = append(hits, contribution{p.FeedHit, risk.CategoryKnownMalicious,
				"listed in threat feeds: " + strings.Join(rep.Feeds, ", ")})
		}
	}
	if act := s.Activity; act != nil {
		if act.RequestsLastMinute > cfg.MaxRequestsPerMinute {
			hits = append(hits, contribution{p.RequestRate, risk.CategoryBot,
				fmt.Sprintf("%d requests in the last minute (limit %d)", act.RequestsLastMinute, cfg.MaxRequestsPerMinute)})
		}
		if act.FailuresLastHour > cfg.MaxFailedAttemptsPerHour {
			hits = append(hits, contribution{p.FailedAttempts, risk.CategoryBruteForce,
				fmt.Sprintf("%d failed attempts in the last hour (limit %d)", act.FailuresLastHour, cfg.MaxFailedAttemptsPerHour)})
		}
		if cfg.MaxUserAgents > 0 && act.DistinctUserAgents > cfg.MaxUserAgents {
			hits = append(hits, contribution{p.UserAgentSpread, risk.CategoryBot,
				fmt.Sprintf("%d distinct user agents", act.DistinctUserAgents)})
		}
	}

	score := 0
	top := contribution{category: risk.CategoryClean}
	indicators := make([]string, 0, len(hits))
	for _, h := range hits {
		score += h.points
		indicators = append(indicators, h.indicator)
		if h.points > top.points {
			top = h
		}
	}
	score = risk.ClampScore(score)

	confidence := baseConfidence + confidencePerRule*len(hits)
	if confidence > maxRuleConfidence {
		confidence = maxRuleConfidence
	}

	reasoning := "no risk rules matched"
	if len(indicators) > 0 {
		reasoning = "rule-based assessment: " + strings.Join(indicators, "; ")
	}

	return Assessment{
		RiskScore:         score,
		Confidence:        confidence,
		Category:          top.category,
		Reasoning:         reasoning,
		Indicators:        indicators,
		Recommendation:    cfg.ActionFor(score),
		Severity:          severityFor(score),
		FalsePositiveRisk: falsePositiveRisk(score, len(hits)),
		Source:            risk.SourceRules,
	}, nil
}

func anonymizerKinds(loc *signals.Location) string {
	var kinds []string
	if loc.IsTor {
		kinds = append(kinds, "tor")
	}
	if loc.IsProxy {
		kinds = append(kinds, "proxy")
	}
	if loc.IsVPN {
		kinds = append(kinds, "vpn")
	}
	if loc.IsHosting {
		kinds = append(kinds, "hosting")
	}
	return strings.Join(kinds, "/")
}

func falsePositiveRisk(score, rules int) string {
	switch {
	case score == 0 || rules >= 3:
		return SeverityLow
	case rules == 2:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}
