package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultMaxTokens = 1024
	defaultModel     = "claude-3-5-haiku-latest"
)

var (
	errMissingKey = errors.New("anthropic: api key is required")
	errNoText     = errors.New("anthropic: response has no text block")
)

type client struct {
	pool providers.Pool[*anthropic.Client]
}

func NewAnthropicClient() providers.Client {
	return &client{}
}

func (c *client) Ask(ctx context.Context, config *providers.Config, prompt string) (*providers.CompletionResponse, error) {
	apiKey := config.Credentials.ApiKey
	if apiKey == "" {
		return nil, errMissingKey
	}
	sdk, _ := c.pool.Get(apiKey, func() (*anthropic.Client, error) {
		cli := anthropic.NewClient(option.WithAPIKey(apiKey))
		return &cli, nil
	})

	params := anthropic.MessageNewParams{
		Model:     modelFor(config),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if config.MaxTokens > 0 {
		params.MaxTokens = int64(config.MaxTokens)
	}
	if system := providers.SystemText(config); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}
	if config.Temperature > 0 {
		params.Temperature = anthropic.Float(config.Temperature)
	}

	msg, err := sdk.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	// the verdict is a single JSON object, so text blocks are concatenated
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errNoText
	}

	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return &providers.CompletionResponse{
		ID:       msg.ID,
		Model:    string(params.Model),
		Response: text.String(),
		Usage:    providers.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out},
	}, nil
}

func modelFor(config *providers.Config) anthropic.Model {
	if config.Model == "" {
		return anthropic.Model(defaultModel)
	}
	return anthropic.Model(config.Model)
}
