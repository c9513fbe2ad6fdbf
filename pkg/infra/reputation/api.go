package reputation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/NeuralTrust/IPGuard/pkg/domain/risk"
	"github.com/NeuralTrust/IPGuard/pkg/domain/signals"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/valyala/fastjson"
)

const apiSource = "abuseipdb"

var ErrUnavailable = errors.New("reputation service unavailable")

type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	MaxAgeDays  int           `mapstructure:"max_age_days"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type apiProvider struct {
	cfg     APIConfig
	client  httpx.Client
	breaker httpx.CircuitBreaker
}

// NewAPIProvider queries an AbuseIPDB compatible check endpoint.
func NewAPIProvider(cfg APIConfig, client httpx.Client, breaker httpx.CircuitBreaker) signals.ReputationProvider {
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 90
	}
	return &apiProvider{cfg: cfg, client: client, breaker: breaker}
}

func (p *apiProvider) Lookup(ctx context.Context, ip string) (*signals.Reputation, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("ipAddress", ip)
	q.Set("maxAgeInDays", fmt.Sprintf("%d", p.cfg.MaxAgeDays))

	var rep *signals.Reputation
	err := p.breaker.Execute(func() error {
		resp, err := p.client.Do(ctx, &httpx.Request{
			Method: http.MethodGet,
			URL:    p.cfg.BaseURL + "/api/v2/check?" + q.Encode(),
			Headers: map[string]string{
				"Key":    p.cfg.APIKey,
				"Accept": "application/json",
			},
		})
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		rep, err = parseCheckResponse(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reputation lookup %s: %w", ip, err)
	}
	return rep, nil
}

func parseCheckResponse(body []byte) (*signals.Reputation, error) {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("invalid reputation payload: %w", err)
	}
	data := v.Get("data")
	if data == nil {
		return nil, fmt.Errorf("invalid reputation payload: missing data")
	}

	rep := &signals.Reputation{
		RiskScore: risk.ClampScore(data.GetInt("abuseConfidenceScore")),
		Source:    apiSource,
	}
	if reports := data.GetInt("totalReports"); reports > 0 {
		rep.Indicators = append(rep.Indicators, fmt.Sprintf("%d abuse reports", reports))
	}
	if data.GetBool("isTor") {
		rep.Indicators = append(rep.Indicators, "tor exit node")
	}
	if usage := string(data.GetStringBytes("usageType")); usage != "" {
		rep.Indicators = append(rep.Indicators, "usage: "+usage)
	}
	switch {
	case data.GetBool("isWhitelisted"):
		rep.RiskScore = 0
		rep.Category = risk.CategoryClean
	case rep.RiskScore >= 50:
		rep.Category = risk.CategoryAbuse
	default:
		rep.Category = risk.CategoryClean
	}
	return rep, nil
}
