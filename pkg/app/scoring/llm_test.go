package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestParseAssessment_FencedReply(t *testing.T) {
	reply := "Here is my analysis:\n```json\n{\"riskScore\": 72, \"confidence\": 80, \"category\": \"Abuse\"," +
		" \"reasoning\": \"many reports\", \"indicators\": [\"reported 40 times\"], \"recommendation\": \"review\"," +
		" \"severity\": \"high\", \"falsePositiveRisk\": \"low\"}\n```\nLet me know."

	a, err := ParseAssessment(reply)
	require.NoError(t, err)
	assert.Equal(t, 72, a.RiskScore)
	assert.Equal(t, 80, a.Confidence)
	assert.Equal(t, risk.CategoryAbuse, a.Category)
	assert.Equal(t, risk.ActionReview, a.Recommendation)
	assert.Equal(t, []string{"reported 40 times"}, a.Indicators)
	assert.Equal(t, "low", a.FalsePositiveRisk)
}

func TestParseAssessment_Defaults(t *testing.T) {
	a, err := ParseAssessment(`{"risk_score": "15"}`)
	require.NoError(t, err)
	assert.Equal(t, 15, a.RiskScore)
	assert.Equal(t, 50, a.Confidence)
	assert.Equal(t, risk.CategoryClean, a.Category)
	assert.Empty(t, a.Recommendation)
}

func TestParseAssessment_Rejects(t *testing.T) {
	cases := map[string]string{
		"no json":         "I cannot help with that.",
		"missing score":   `{"confidence": 90}`,
		"score too high":  `{"riskScore": 140}`,
		"negative score":  `{"riskScore": -3}`,
		"bad confidence":  `{"riskScore": 10, "confidence": 101}`,
		"malformed value": `{"riskScore": 10,}`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAssessment(reply)
			assert.ErrorIs(t, err, ErrInvalidAssessment)
		})
	}
}

func TestLLMScorer_Score(t *testing.T) {
	client := mocks.NewClient(t)
	client.EXPECT().
		Ask(mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
			return assert.Contains(t, p, "203.0.113.9")
		})).
		Return(&providers.CompletionResponse{
			Model:    "test-model",
			Response: `{"riskScore": 88, "confidence": 75, "category": "brute_force"}`,
		}, nil).
		Once()

	scorer := NewLLMScorer(LLMConfig{Timeout: time.Second}, client, newSettings(t, nil), quietLogger())
	a, err := scorer.Score(context.Background(), &signals.ThreatSignals{IP: "203.0.113.9"})
	require.NoError(t, err)
	assert.Equal(t, 88, a.RiskScore)
	assert.Equal(t, risk.SourceLLM, a.Source)
	assert.Equal(t, risk.ActionBlock, a.Recommendation)
	assert.Equal(t, SeverityCritical, a.Severity)
}

func TestLLMScorer_RateLimited(t *testing.T) {
	client := mocks.NewClient(t)
	client.EXPECT().
		Ask(mock.Anything, mock.Anything, mock.Anything).
		Return(&providers.CompletionResponse{Response: `{"riskScore": 10}`}, nil).
		Once()

	scorer := NewLLMScorer(LLMConfig{PerMinute: 1, Burst: 1}, client, newSettings(t, nil), quietLogger())
	_, err := scorer.Score(context.Background(), &signals.ThreatSignals{IP: "203.0.113.10"})
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), &signals.ThreatSignals{IP: "203.0.113.10"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestLLMScorer_BreakerOpens(t *testing.T) {
	client := mocks.NewClient(t)
	client.EXPECT().
		Ask(mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream 500")).
		Times(2)

	scorer := NewLLMScorer(LLMConfig{MaxFailures: 2, OpenTimeout: time.Minute, PerMinute: 6000, Burst: 10},
		client, newSettings(t, nil), quietLogger())
	sig := &signals.ThreatSignals{IP: "203.0.113.11"}

	for i := 0; i < 2; i++ {
		_, err := scorer.Score(context.Background(), sig)
		require.Error(t, err)
	}
	_, err := scorer.Score(context.Background(), sig)
	assert.ErrorIs(t, err, httpx.ErrBreakerOpen)
}
