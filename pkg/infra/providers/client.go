package providers

import (
	"context"
)

type Config struct {
	Credentials Credentials            `json:"credentials" mapstructure:"credentials"`
	Model       string                 `json:"model" mapstructure:"model"`
	MaxTokens   int                    `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
	Temperature float64                `json:"temperature,omitempty" mapstructure:"temperature"`
	BaseURL     string                 `json:"base_url,omitempty" mapstructure:"base_url"`
	Options     map[string]interface{} `json:"options,omitempty" mapstructure:"options"`
}

type Credentials struct {
	ApiKey string `json:"api_key" mapstructure:"api_key"`
}

// Schema is a JSON schema the generator output must conform to.
type Schema struct {
	Name       string
	Definition map[string]any
}

type Request struct {
	SystemPrompt string
	Prompt       string
	Schema       Schema
}

type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

//go:generate mockery --name=Client --dir=. --output=./mocks --filename=client_mock.go --case=underscore --with-expecter

// Client generates one structured answer. Safety blocks raised by the
// provider are returned as *GuardrailError, explicit refusals as
// *RefusalError.
type Client interface {
	Generate(ctx context.Context, config *Config, req Request) (*Response, error)
}
