package factory

import (
	"fmt"
	"sync"

	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/anthropic"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/azure"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/bedrock"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/gemini"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers/openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderAzure     = "azure"
)

//go:generate mockery --name=ProviderLocator --dir=. --output=./mocks --filename=provider_locator_mock.go --case=underscore --with-expecter
type ProviderLocator interface {
	Get(provider string) (providers.Client, error)
}

type providerLocator struct {
	httpClient httpx.Client
	mu         sync.Mutex
	clients    map[string]providers.Client
}

func NewProviderLocator(httpClient httpx.Client) ProviderLocator {
	return &providerLocator{
		httpClient: httpClient,
		clients:    make(map[string]providers.Client),
	}
}

// Get returns one shared client per provider name.
func (f *providerLocator) Get(provider string) (providers.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[provider]; ok {
		return c, nil
	}
	var c providers.Client
	switch provider {
	case ProviderOpenAI:
		c = openai.NewOpenaiClient()
	case ProviderGoogle, ProviderGemini:
		c = gemini.NewGeminiClient()
	case ProviderAnthropic:
		c = anthropic.NewAnthropicClient()
	case ProviderBedrock:
		c = bedrock.NewBedrockClient()
	case ProviderAzure:
		c = azure.NewAzureClient(f.httpClient, nil)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	f.clients[provider] = c
	return c, nil
}
