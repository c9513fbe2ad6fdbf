package risk

type Action string

const (
	ActionAllow   Action = "allow"
	ActionMonitor Action = "monitor"
	ActionReview  Action = "review"
	ActionBlock   Action = "block"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAllow, ActionMonitor, ActionReview, ActionBlock:
		return true
	}
	return false
}

// Source identifies what produced a Decision.
type Source string

const (
	SourceLLM       Source = "llm"
	SourceRules     Source = "rules"
	SourceWhitelist Source = "whitelist"
	SourceBlocklist Source = "blocklist"
)

const (
	CategoryClean          = "clean"
	CategoryWhitelisted    = "whitelisted"
	CategoryBruteForce     = "brute_force"
	CategoryAnonymizer     = "anonymizer"
	CategoryGeoRestricted  = "geo_restricted"
	CategoryKnownMalicious = "known_malicious"
	CategoryAbuse          = "abuse"
	CategoryBot            = "bot"
	CategoryManual         = "manual"
)
