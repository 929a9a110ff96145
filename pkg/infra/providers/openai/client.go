package openai

import (
	"context"
	"fmt"
	"sync"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"golang.org/x/sync/singleflight"
)

const (
	ProviderName = "openai"

	finishReasonContentFilter = "content_filter"
)

type client struct {
	clientPool *sync.Map
	sf         singleflight.Group
}

func NewOpenaiClient() providers.Client {
	return &client{
		clientPool: &sync.Map{},
	}
}

func (c *client) Generate(
	ctx context.Context,
	config *providers.Config,
	req providers.Request,
) (*providers.Response, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	openaiClient := c.getOrCreateClient(config.Credentials.ApiKey, config.BaseURL)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    config.Model,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Schema.Name,
					Schema: req.Schema.Definition,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	if config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(config.MaxTokens))
	}

	if config.Temperature > 0 {
		params.Temperature = openai.Float(config.Temperature)
	}

	resp, err := openaiClient.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, providers.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, providers.NewRefusalError(ProviderName, providers.StaticExplanation(choice.Message.Refusal))
	}
	if choice.FinishReason == finishReasonContentFilter {
		return nil, providers.NewGuardrailError(ProviderName, finishReasonContentFilter)
	}
	if choice.Message.Content == "" {
		return nil, providers.ErrEmptyResponse
	}

	return &providers.Response{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: choice.Message.Content,
		Usage: providers.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (c *client) getOrCreateClient(apiKey, baseURL string) *openai.Client {
	key := apiKey + "|" + baseURL
	if v, ok := c.clientPool.Load(key); ok {
		if client, ok := v.(*openai.Client); ok {
			return client
		}
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		if v2, ok := c.clientPool.Load(key); ok {
			return v2, nil
		}
		cli := newSDKClient(apiKey, baseURL)
		c.clientPool.Store(key, cli)
		return cli, nil
	})
	if err != nil {
		return newSDKClient(apiKey, baseURL)
	}
	if client, ok := v.(*openai.Client); ok {
		return client
	}
	return newSDKClient(apiKey, baseURL)
}

// newSDKClient disables SDK retries: one user action is one generation attempt.
func newSDKClient(apiKey, baseURL string) *openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	cli := openai.NewClient(opts...)
	return &cli
}
