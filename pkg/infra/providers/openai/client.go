package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var (
	errMissingKey   = errors.New("openai: api key is required")
	errMissingModel = errors.New("openai: model is required")
	errNoChoices    = errors.New("openai: no choices returned")
)

type client struct {
	pool providers.Pool[*openai.Client]
}

func NewOpenaiClient() providers.Client {
	return &client{}
}

func (c *client) Ask(ctx context.Context, config *providers.Config, prompt string) (*providers.CompletionResponse, error) {
	creds := config.Credentials
	switch {
	case creds.ApiKey == "":
		return nil, errMissingKey
	case config.Model == "":
		return nil, errMissingModel
	}

	sdk, _ := c.pool.Get(creds.ApiKey+"|"+creds.BaseURL, func() (*openai.Client, error) {
		opts := []option.RequestOption{option.WithAPIKey(creds.ApiKey)}
		if creds.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(creds.BaseURL))
		}
		cli := openai.NewClient(opts...)
		return &cli, nil
	})

	params := openai.ChatCompletionNewParams{
		Model:    config.Model,
		Messages: messages(config, prompt),
	}
	if config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(config.MaxTokens))
	}
	if config.Temperature > 0 {
		params.Temperature = openai.Float(config.Temperature)
	}

	completion, err := sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errNoChoices
	}
	usage := completion.Usage
	return &providers.CompletionResponse{
		ID:       completion.ID,
		Model:    completion.Model,
		Response: completion.Choices[0].Message.Content,
		Usage: providers.Usage{
			PromptTokens:     int(usage.PromptTokens),
			CompletionTokens: int(usage.CompletionTokens),
			TotalTokens:      int(usage.TotalTokens),
		},
	}, nil
}

func messages(config *providers.Config, prompt string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system := providers.SystemText(config); system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	return append(out, openai.UserMessage(prompt))
}
