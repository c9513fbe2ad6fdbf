package bedrock

import (
	"context"
	"fmt"
	"strings"

	"github.com/NeuralTrust/IPGuard/pkg/infra/providers"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const defaultModel = "anthropic.claude-3-haiku-20240307-v1:0"

type client struct {
	pool providers.Pool[*bedrockruntime.Client]
}

func NewBedrockClient() providers.Client {
	return &client{}
}

// Ask uses the Converse API so one request shape works across model
// families.
func (c *client) Ask(
	ctx context.Context,
	config *providers.Config,
	prompt string,
) (*providers.CompletionResponse, error) {
	creds := config.Credentials.Aws
	bedrockCl, err := c.pool.Get(buildClientKey(creds), func() (*bedrockruntime.Client, error) {
		return newRuntimeClient(ctx, creds)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(model),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
	}

	if system := providers.SystemText(config); system != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}}
	}

	inference := &types.InferenceConfiguration{}
	if config.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(config.MaxTokens))
	}
	if config.Temperature > 0 {
		inference.Temperature = aws.Float32(float32(config.Temperature))
	}
	input.InferenceConfig = inference

	resp, err := bedrockCl.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %w", err)
	}

	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected bedrock output type %T", resp.Output)
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("no text content returned")
	}

	out := &providers.CompletionResponse{
		ID:       providers.FallbackID("bedrock"),
		Model:    model,
		Response: b.String(),
	}
	if resp.Usage != nil {
		out.Usage = providers.Usage{
			PromptTokens:     int(aws.ToInt32(resp.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(resp.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(resp.Usage.TotalTokens)),
		}
	}
	return out, nil
}

func newRuntimeClient(ctx context.Context, creds *providers.AwsCredentials) (*bedrockruntime.Client, error) {
	var opts []func(*config.LoadOptions) error
	if creds != nil {
		if creds.Region != "" {
			opts = append(opts, config.WithRegion(creds.Region))
		}
		if creds.AccessKey != "" && creds.SecretKey != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, creds.SessionToken),
			))
		}
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

func buildClientKey(creds *providers.AwsCredentials) string {
	if creds == nil {
		return "default"
	}
	return creds.Region + "|" + creds.AccessKey
}
