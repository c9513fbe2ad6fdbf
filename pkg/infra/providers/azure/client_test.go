package azure

import (
	"context"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx/mocks"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "aad-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

const completionBody = `{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":"{\"riskScore\":12}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`

func TestAzureClient_AskWithAPIKey(t *testing.T) {
	httpClient := mocks.NewClient(t)
	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(req *httpx.Request) bool {
		return req.URL == "https://example.openai.azure.com/openai/deployments/gpt-4o/chat/completions?api-version=2024-02-15-preview" &&
			req.Headers["api-key"] == "key"
	})).Return(&httpx.Response{StatusCode: 200, Body: []byte(completionBody)}, nil)

	c := NewAzureClient(httpClient, nil)
	resp, err := c.Ask(context.Background(), &providers.Config{
		Model: "gpt-4o",
		Credentials: providers.Credentials{
			ApiKey: "key",
			Azure:  &providers.AzureCredentials{Endpoint: "https://example.openai.azure.com/"},
		},
	}, "score this")
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, `{"riskScore":12}`, resp.Response)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestAzureClient_AskWithIdentity(t *testing.T) {
	httpClient := mocks.NewClient(t)
	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(req *httpx.Request) bool {
		return req.Headers["Authorization"] == "Bearer aad-token"
	})).Return(&httpx.Response{StatusCode: 200, Body: []byte(completionBody)}, nil)

	c := NewAzureClient(httpClient, staticCredential{})
	_, err := c.Ask(context.Background(), &providers.Config{
		Model: "gpt-4o",
		Credentials: providers.Credentials{
			Azure: &providers.AzureCredentials{Endpoint: "https://example.openai.azure.com", UseIdentity: true},
		},
	}, "score this")
	require.NoError(t, err)
}

func TestAzureClient_Non200(t *testing.T) {
	httpClient := mocks.NewClient(t)
	httpClient.On("Do", mock.Anything, mock.Anything).
		Return(&httpx.Response{StatusCode: 429, Body: []byte(`{"error":"rate limited"}`)}, nil)

	c := NewAzureClient(httpClient, nil)
	_, err := c.Ask(context.Background(), &providers.Config{
		Model: "gpt-4o",
		Credentials: providers.Credentials{
			ApiKey: "key",
			Azure:  &providers.AzureCredentials{Endpoint: "https://example.openai.azure.com"},
		},
	}, "x")
	assert.ErrorContains(t, err, "non-200 status: 429")
}

func TestAzureClient_RequiresEndpoint(t *testing.T) {
	c := NewAzureClient(mocks.NewClient(t), nil)
	_, err := c.Ask(context.Background(), &providers.Config{Model: "gpt-4o"}, "x")
	assert.Error(t, err)
}
