package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/NeuralTrust/IPGuard/pkg/infra/httpx"
	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/valyala/fastjson"
)

const (
	defaultAPIVersion = "2024-02-15-preview"
	cognitiveScope    = "https://cognitiveservices.azure.com/.default"
)

type client struct {
	httpClient httpx.Client
	credential azcore.TokenCredential
}

// NewAzureClient talks to Azure OpenAI deployments. When credential is nil
// and a config asks for identity auth, the default Azure credential chain is
// built on first use.
func NewAzureClient(httpClient httpx.Client, credential azcore.TokenCredential) providers.Client {
	return &client{
		httpClient: httpClient,
		credential: credential,
	}
}

func (c *client) Ask(
	ctx context.Context,
	config *providers.Config,
	prompt string,
) (*providers.CompletionResponse, error) {
	azureCfg := config.Credentials.Azure
	if azureCfg == nil || azureCfg.Endpoint == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model (deployment ID) is required")
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if azureCfg.UseIdentity {
		token, err := c.token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get Azure AD token: %w", err)
		}
		headers["Authorization"] = "Bearer " + token
	} else {
		if config.Credentials.ApiKey == "" {
			return nil, fmt.Errorf("API key is required when not using Azure identity")
		}
		headers["api-key"] = config.Credentials.ApiKey
	}

	messages := make([]map[string]string, 0, 3)
	if config.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": config.SystemPrompt})
	}
	if len(config.Instructions) > 0 {
		messages = append(messages, map[string]string{"role": "system", "content": providers.FormatInstructions(config.Instructions)})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	reqBody := map[string]interface{}{"messages": messages}
	if config.Temperature > 0 {
		reqBody["temperature"] = config.Temperature
	}
	if config.MaxTokens > 0 {
		reqBody["max_tokens"] = config.MaxTokens
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	apiVersion := azureCfg.ApiVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(azureCfg.Endpoint, "/"), config.Model, apiVersion)

	resp, err := c.httpClient.Do(ctx, &httpx.Request{
		Method:  http.MethodPost,
		URL:     url,
		Headers: headers,
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status: %d: %s", resp.StatusCode, truncate(resp.Body, 256))
	}

	return parseCompletion(resp.Body, config.Model)
}

func parseCompletion(body []byte, model string) (*providers.CompletionResponse, error) {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	content := string(v.GetStringBytes("choices", "0", "message", "content"))
	if content == "" {
		return nil, fmt.Errorf("no completions returned")
	}
	id := string(v.GetStringBytes("id"))
	if id == "" {
		id = providers.FallbackID("azure")
	}
	return &providers.CompletionResponse{
		ID:       id,
		Model:    model,
		Response: content,
		Usage: providers.Usage{
			PromptTokens:     v.GetInt("usage", "prompt_tokens"),
			CompletionTokens: v.GetInt("usage", "completion_tokens"),
			TotalTokens:      v.GetInt("usage", "total_tokens"),
		},
	}, nil
}

func (c *client) token(ctx context.Context) (string, error) {
	if c.credential == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return "", fmt.Errorf("failed to create credential: %w", err)
		}
		c.credential = cred
	}
	token, err := c.credential.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveScope},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token.Token, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
