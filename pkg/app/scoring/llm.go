package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
	"golang.org/x/time/rate"
)

var (
	ErrRateLimited       = errors.New("llm scorer rate limited")
	ErrInvalidAssessment = errors.New("invalid llm assessment")
)

const defaultSystemPrompt = `You are a network security analyst. You receive threat signals about one IP address ` +
	`and return a risk assessment as a single JSON object with the fields: ` +
	`riskScore (integer 0-100), confidence (integer 0-100), category (string), reasoning (string), ` +
	`indicators (array of strings), recommendation (one of allow, monitor, review, block), ` +
	`severity (low, medium, high, critical) and falsePositiveRisk (low, medium, high). ` +
	`Return only the JSON object.`

type LLMConfig struct {
	Provider    providers.Config `mapstructure:"provider"`
	Timeout     time.Duration    `mapstructure:"timeout"`
	PerMinute   float64          `mapstructure:"requests_per_minute"`
	Burst       int              `mapstructure:"burst"`
	MaxFailures uint32           `mapstructure:"max_failures"`
	OpenTimeout time.Duration    `mapstructure:"open_timeout"`
}

type llmScorer struct {
	cfg      LLMConfig
	client   providers.Client
	limiter  *rate.Limiter
	breaker  httpx.CircuitBreaker
	settings *risk.SettingsStore
	logger   *logrus.Logger
}

// NewLLMScorer asks a language model for an assessment. Calls are bounded
// by a token bucket and a circuit breaker so a failing or expensive
// provider is cut off quickly.
func NewLLMScorer(
	cfg LLMConfig,
	client providers.Client,
	settings *risk.SettingsStore,
	logger *logrus.Logger,
) Scorer {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 60
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.Provider.SystemPrompt == "" {
		cfg.Provider.SystemPrompt = defaultSystemPrompt
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = 512
	}
	s := &llmScorer{
		cfg:      cfg,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(cfg.PerMinute/60), cfg.Burst),
		settings: settings,
		logger:   logger,
	}
	s.breaker = httpx.NewCircuitBreaker("llm-scorer", cfg.OpenTimeout, cfg.MaxFailures,
		func(name, from, to string) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from, "to": to}).Warn("llm scorer breaker changed state")
		})
	return s
}

func (s *llmScorer) Name() string { return string(risk.SourceLLM) }

func (s *llmScorer) Score(ctx context.Context, sig *signals.ThreatSignals) (Assessment, error) {
	if !s.limiter.Allow() {
		return Assessment{}, ErrRateLimited
	}
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = s.settings.Get().ScorerTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	prompt, err := BuildPrompt(sig)
	if err != nil {
		return Assessment{}, err
	}

	var resp *providers.CompletionResponse
	err = s.breaker.Execute(func() error {
		var askErr error
		resp, askErr = s.client.Ask(ctx, &s.cfg.Provider, prompt)
		return askErr
	})
	if err != nil {
		return Assessment{}, fmt.Errorf("llm request failed: %w", err)
	}

	a, err := ParseAssessment(resp.Response)
	if err != nil {
		return Assessment{}, err
	}
	if a.Recommendation == "" {
		a.Recommendation = s.settings.Get().ActionFor(a.RiskScore)
	}
	if a.Severity == "" {
		a.Severity = severityFor(a.RiskScore)
	}
	a.Source = risk.SourceLLM

	s.logger.WithFields(logrus.Fields{
		"ip":          sig.IP,
		"score":       a.RiskScore,
		"confidence":  a.Confidence,
		"model":       resp.Model,
		"tokens_used": resp.Usage.TotalTokens,
	}).Debug("llm assessment")
	return a, nil
}

type promptSignals struct {
	IP         string                    `json:"ip"`
	Location   *signals.Location         `json:"location"`
	Reputation *signals.Reputation       `json:"reputation"`
	Activity   *signals.ActivityPatterns `json:"activity"`
	Context    signals.Contextual        `json:"context"`
	Missing    []string                  `json:"unavailable_signals,omitempty"`
}

// BuildPrompt renders the signals as a JSON document for the model.
func BuildPrompt(sig *signals.ThreatSignals) (string, error) {
	b, err := json.MarshalIndent(promptSignals{
		IP:         sig.IP,
		Location:   sig.Location,
		Reputation: sig.Reputation,
		Activity:   sig.Activity,
		Context:    sig.Contextual,
		Missing:    sig.Errors,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return "Assess the risk of this IP address.\n\nThreat signals:\n" + string(b), nil
}

// ParseAssessment extracts the first JSON object from a model reply,
// tolerating code fences and surrounding prose, and validates its ranges.
func ParseAssessment(reply string) (Assessment, error) {
	raw := extractJSON(reply)
	if raw == nil {
		return Assessment{}, fmt.Errorf("%w: no json object in reply", ErrInvalidAssessment)
	}
	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return Assessment{}, fmt.Errorf("%w: %v", ErrInvalidAssessment, err)
	}

	score, ok := intField(v, "riskScore", "risk_score", "score")
	if !ok {
		return Assessment{}, fmt.Errorf("%w: missing riskScore", ErrInvalidAssessment)
	}
	if score < 0 || score > 100 {
		return Assessment{}, fmt.Errorf("%w: riskScore %d out of range", ErrInvalidAssessment, score)
	}
	confidence, ok := intField(v, "confidence")
	if !ok {
		confidence = 50
	}
	if confidence < 0 || confidence > 100 {
		return Assessment{}, fmt.Errorf("%w: confidence %d out of range", ErrInvalidAssessment, confidence)
	}

	a := Assessment{
		RiskScore:         score,
		Confidence:        confidence,
		Category:          strings.ToLower(stringField(v, "category")),
		Reasoning:         stringField(v, "reasoning"),
		Severity:          strings.ToLower(stringField(v, "severity")),
		FalsePositiveRisk: strings.ToLower(stringField(v, "falsePositiveRisk", "false_positive_risk")),
	}
	if a.Category == "" {
		a.Category = risk.CategoryClean
	}
	if rec := risk.Action(strings.ToLower(stringField(v, "recommendation"))); rec.Valid() {
		a.Recommendation = rec
	}
	for _, item := range v.GetArray("indicators") {
		if b, err := item.StringBytes(); err == nil && len(b) > 0 {
			a.Indicators = append(a.Indicators, string(b))
		}
	}
	return a, nil
}

func extractJSON(reply string) []byte {
	b := []byte(strings.TrimSpace(reply))
	if i := bytes.Index(b, []byte("```")); i >= 0 {
		rest := b[i+3:]
		if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := bytes.Index(rest, []byte("```")); end >= 0 {
			b = rest[:end]
		}
	}
	start := bytes.IndexByte(b, '{')
	end := bytes.LastIndexByte(b, '}')
	if start < 0 || end <= start {
		return nil
	}
	return b[start : end+1]
}

func intField(v *fastjson.Value, keys ...string) (int, bool) {
	for _, k := range keys {
		f := v.Get(k)
		if f == nil {
			continue
		}
		switch f.Type() {
		case fastjson.TypeNumber:
			n, err := f.Float64()
			if err != nil {
				return 0, false
			}
			return int(n + 0.5), true
		case fastjson.TypeString:
			var n int
			if _, err := fmt.Sscanf(string(f.GetStringBytes()), "%d", &n); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func stringField(v *fastjson.Value, keys ...string) string {
	for _, k := range keys {
		if b := v.GetStringBytes(k); len(b) > 0 {
			return string(b)
		}
	}
	return ""
}
