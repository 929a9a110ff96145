package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"golang.org/x/sync/singleflight"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"

	defaultModel = "gemini-2.0-flash"
)

// Finish reasons that mean the safety system stopped the candidate.
var blockedFinishReasons = map[string]struct{}{
	"SAFETY":             {},
	"PROHIBITED_CONTENT": {},
	"BLOCKLIST":          {},
	"SPII":               {},
}

type client struct {
	clientPool *sync.Map
	sf         singleflight.Group
}

func NewGeminiClient() providers.Client {
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

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	genaiClient, err := c.getOrCreateClient(ctx, config.Credentials.ApiKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	schema, err := ToSchema(req.Schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to convert schema %s: %w", req.Schema.Name, err)
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
			Role:  "system",
		}
	}
	if config.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(float32(config.Temperature))
	}
	if config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(config.MaxTokens)
	}

	result, err := genaiClient.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, providers.NewGuardrailError(ProviderName, string(result.PromptFeedback.BlockReason))
	}
	if len(result.Candidates) == 0 {
		return nil, providers.ErrEmptyResponse
	}
	if reason := string(result.Candidates[0].FinishReason); isBlocked(reason) {
		return nil, providers.NewGuardrailError(ProviderName, reason)
	}

	responseText := strings.TrimSpace(result.Text())
	if responseText == "" {
		return nil, providers.ErrEmptyResponse
	}

	resp := &providers.Response{
		ID:      fmt.Sprintf("gemini-%d", time.Now().UnixNano()),
		Model:   model,
		Content: responseText,
	}
	if result.UsageMetadata != nil {
		resp.Usage = providers.Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return resp, nil
}

func isBlocked(finishReason string) bool {
	_, ok := blockedFinishReasons[finishReason]
	return ok
}

func (c *client) getOrCreateClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	key := apiKey + "|" + baseURL
	if v, ok := c.clientPool.Load(key); ok {
		if cli, ok := v.(*genai.Client); ok {
			return cli, nil
		}
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		if v2, ok := c.clientPool.Load(key); ok {
			return v2, nil
		}
		cfg := &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		}
		if baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
		}
		cli, err := genai.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.clientPool.Store(key, cli)
		return cli, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	cli, ok := v.(*genai.Client)
	if !ok {
		return nil, fmt.Errorf("unexpected gemini client type %T", v)
	}
	return cli, nil
}
