package risk

import "time"

// Decision is the outcome of one analysis run for an IP. It is never mutated
// after it leaves the analyzer.
type Decision struct {
	IP         string    `json:"ip"`
	Action     Action    `json:"action"`
	RiskScore  int       `json:"risk_score"`
	Confidence int       `json:"confidence"`
	Category   string    `json:"category"`
	Indicators []string  `json:"indicators"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Source     Source    `json:"source"`
	State      State     `json:"state"`
	Degraded   bool      `json:"degraded"`
	Timestamp  time.Time `json:"timestamp"`
}

func WhitelistedDecision(ip string, now time.Time) Decision {
	return Decision{
		IP:         ip,
		Action:     ActionAllow,
		RiskScore:  0,
		Confidence: 100,
		Category:   CategoryWhitelisted,
		Indicators: []string{"ip is whitelisted"},
		Source:     SourceWhitelist,
		State:      StateAllowed,
		Timestamp:  now,
	}
}

func BlockedDecision(ip, category string, indicators []string, now time.Time) Decision {
	if category == "" {
		category = CategoryKnownMalicious
	}
	ind := append([]string{"ip has an active block"}, indicators...)
	return Decision{
		IP:         ip,
		Action:     ActionBlock,
		RiskScore:  100,
		Confidence: 100,
		Category:   category,
		Indicators: ind,
		Source:     SourceBlocklist,
		State:      StateBlocked,
		Timestamp:  now,
	}
}

func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
