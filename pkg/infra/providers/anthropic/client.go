package anthropic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	ProviderName = "anthropic"
	DefaultModel = "claude-3-5-haiku-latest"

	defaultMaxTokens  = 1024
	stopReasonRefusal = "refusal"
)

type client struct {
	clientPool *sync.Map
}

func NewAnthropicClient() providers.Client {
	return &client{
		clientPool: &sync.Map{},
	}
}

func (c *client) Generate(
	ctx context.Context,
	config *providers.Config,
	req providers.Request,
) (*providers.Response, error) {
	if config.Credentials.ApiKey == "" {
		return nil, providers.ErrMissingAPIKey
	}

	anthropicClient := c.getOrCreateClient(config.Credentials.ApiKey, config.BaseURL)

	schemaInstruction, err := providers.SchemaInstruction(req.Schema)
	if err != nil {
		return nil, err
	}

	model := anthropic.Model(DefaultModel)
	if config.Model != "" {
		model = anthropic.Model(config.Model)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		System: []anthropic.TextBlockParam{
			{
				Text: req.SystemPrompt + "\n\n" + schemaInstruction,
				Type: "text",
			},
		},
	}

	if config.Temperature > 0 {
		params.Temperature = anthropic.Float(config.Temperature)
	}

	message, err := anthropicClient.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var texts []string
	for _, content := range message.Content {
		if content.Type == "text" && content.Text != "" {
			texts = append(texts, content.Text)
		}
	}
	responseText := strings.Join(texts, "\n")

	if string(message.StopReason) == stopReasonRefusal {
		return nil, providers.NewRefusalError(ProviderName, providers.StaticExplanation(strings.TrimSpace(responseText)))
	}

	if responseText == "" {
		return nil, providers.ErrEmptyResponse
	}

	return &providers.Response{
		ID:      message.ID,
		Model:   string(model),
		Content: responseText,
		Usage: providers.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

func (c *client) getOrCreateClient(apiKey, baseURL string) anthropic.Client {
	key := apiKey + "|" + baseURL
	if clientVal, ok := c.clientPool.Load(key); ok {
		if client, ok := clientVal.(anthropic.Client); ok {
			return client
		}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	newClient := anthropic.NewClient(opts...)
	c.clientPool.Store(key, newClient)
	return newClient
}
