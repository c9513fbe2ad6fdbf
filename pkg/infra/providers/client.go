package providers

import (
	"context"
)

type Config struct {
	Provider     string      `mapstructure:"provider" json:"provider"`
	Credentials  Credentials `mapstructure:"credentials" json:"-"`
	Model        string      `mapstructure:"model" json:"model"`
	MaxTokens    int         `mapstructure:"max_tokens" json:"max_tokens,omitempty"`
	Temperature  float64     `mapstructure:"temperature" json:"temperature,omitempty"`
	SystemPrompt string      `mapstructure:"system_prompt" json:"system_prompt,omitempty"`
	Instructions []string    `mapstructure:"instructions" json:"instructions,omitempty"`
}

type Credentials struct {
	ApiKey  string            `mapstructure:"api_key"`
	BaseURL string            `mapstructure:"base_url"`
	Aws     *AwsCredentials   `mapstructure:"aws"`
	Azure   *AzureCredentials `mapstructure:"azure"`
}

type AwsCredentials struct {
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	SessionToken string `mapstructure:"session_token"`
	Region       string `mapstructure:"region"`
}

type AzureCredentials struct {
	Endpoint    string `mapstructure:"endpoint"`
	ApiVersion  string `mapstructure:"api_version"`
	UseIdentity bool   `mapstructure:"use_identity"`
}

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore --with-expecter
type Client interface {
	Ask(ctx context.Context, config *Config, prompt string) (*CompletionResponse, error)
}
