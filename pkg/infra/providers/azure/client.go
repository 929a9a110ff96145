package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/mitchellh/mapstructure"
)

const (
	ProviderName = "azure"

	defaultAPIVersion = "2024-10-21"
	cognitiveScope    = "https://cognitiveservices.azure.com/.default"
	httpClientTimeout = 120 * time.Second

	finishReasonContentFilter = "content_filter"
)

// Options are read from providers.Config.Options. BaseURL holds the resource
// endpoint and Model the deployment name.
type Options struct {
	APIVersion  string `mapstructure:"api_version"`
	UseIdentity bool   `mapstructure:"use_identity"`
}

type TokenFunc func(ctx context.Context) (string, error)

type client struct {
	httpClient *http.Client
	token      TokenFunc
}

func NewAzureClient() providers.Client {
	return NewAzureClientWithToken(&http.Client{Timeout: httpClientTimeout}, getAzureADToken)
}

func NewAzureClientWithToken(httpClient *http.Client, token TokenFunc) providers.Client {
	return &client{
		httpClient: httpClient,
		token:      token,
	}
}

type chatRequest struct {
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature,omitempty"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Usage providers.Usage `json:"usage"`
}

func (c *client) Generate(
	ctx context.Context,
	config *providers.Config,
	req providers.Request,
) (*providers.Response, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("azure endpoint is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: azure deployment name", providers.ErrMissingModel)
	}

	var opts Options
	if len(config.Options) > 0 {
		if err := mapstructure.Decode(config.Options, &opts); err != nil {
			return nil, fmt.Errorf("invalid azure options: %w", err)
		}
	}
	if opts.APIVersion == "" {
		opts.APIVersion = defaultAPIVersion
	}

	headerKey, headerValue, err := c.authHeader(ctx, config, opts)
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Definition,
				Strict: true,
			},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		config.BaseURL, config.Model, opts.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerKey, headerValue)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(respBody, []byte(finishReasonContentFilter)) {
		// Azure rejects prompts caught by its content filter with a 400.
		return nil, providers.NewGuardrailError(ProviderName, finishReasonContentFilter)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status: %d\n%s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, providers.ErrEmptyResponse
	}

	choice := parsed.Choices[0]
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
		ID:      parsed.ID,
		Model:   config.Model,
		Content: choice.Message.Content,
		Usage:   parsed.Usage,
	}, nil
}

func (c *client) authHeader(ctx context.Context, config *providers.Config, opts Options) (string, string, error) {
	if opts.UseIdentity {
		token, err := c.token(ctx)
		if err != nil {
			return "", "", fmt.Errorf("failed to get Azure AD token: %w", err)
		}
		return "Authorization", "Bearer " + token, nil
	}
	if config.Credentials.ApiKey == "" {
		return "", "", fmt.Errorf("%w when not using Azure identity", providers.ErrMissingAPIKey)
	}
	return "api-key", config.Credentials.ApiKey, nil
}

func getAzureADToken(ctx context.Context) (string, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return "", fmt.Errorf("failed to create credential: %w", err)
	}
	token, err := cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveScope},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token.Token, nil
}
