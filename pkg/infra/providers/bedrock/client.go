package bedrock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/mitchellh/mapstructure"
)

const (
	ProviderName = "bedrock"

	defaultRegion = "us-east-1"
)

// Options are the bedrock specific settings carried in providers.Config.Options.
type Options struct {
	Region           string `mapstructure:"region"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	SessionToken     string `mapstructure:"session_token"`
	GuardrailID      string `mapstructure:"guardrail_id"`
	GuardrailVersion string `mapstructure:"guardrail_version"`
}

type ConverseAPI interface {
	Converse(
		ctx context.Context,
		params *bedrockruntime.ConverseInput,
		optFns ...func(*bedrockruntime.Options),
	) (*bedrockruntime.ConverseOutput, error)
}

type RuntimeBuilder func(ctx context.Context, opts Options) (ConverseAPI, error)

type client struct {
	clientPool *sync.Map
	build      RuntimeBuilder
}

func NewBedrockClient() providers.Client {
	return NewBedrockClientWithRuntime(buildRuntime)
}

func NewBedrockClientWithRuntime(build RuntimeBuilder) providers.Client {
	return &client{
		clientPool: &sync.Map{},
		build:      build,
	}
}

func DecodeOptions(raw map[string]interface{}) (Options, error) {
	var opts Options
	if len(raw) > 0 {
		if err := mapstructure.Decode(raw, &opts); err != nil {
			return Options{}, fmt.Errorf("invalid bedrock options: %w", err)
		}
	}
	if opts.Region == "" {
		opts.Region = defaultRegion
	}
	return opts, nil
}

func (c *client) Generate(
	ctx context.Context,
	cfg *providers.Config,
	req providers.Request,
) (*providers.Response, error) {
	if cfg.Model == "" {
		return nil, providers.ErrMissingModel
	}

	opts, err := DecodeOptions(cfg.Options)
	if err != nil {
		return nil, err
	}

	runtime, err := c.getOrCreateClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
	}

	schemaInstruction, err := providers.SchemaInstruction(req.Schema)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(cfg.Model),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.SystemPrompt + "\n\n" + schemaInstruction},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
	}

	inference := &types.InferenceConfiguration{}
	if cfg.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(cfg.MaxTokens))
	}
	if cfg.Temperature > 0 {
		inference.Temperature = aws.Float32(float32(cfg.Temperature))
	}
	input.InferenceConfig = inference

	if opts.GuardrailID != "" {
		input.GuardrailConfig = &types.GuardrailConfiguration{
			GuardrailIdentifier: aws.String(opts.GuardrailID),
			GuardrailVersion:    aws.String(opts.GuardrailVersion),
		}
	}

	out, err := runtime.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke model: %w", err)
	}

	switch out.StopReason {
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return nil, providers.NewGuardrailError(ProviderName, string(out.StopReason))
	}

	text := extractText(out.Output)
	if text == "" {
		return nil, providers.ErrEmptyResponse
	}

	resp := &providers.Response{
		ID:      fmt.Sprintf("bedrock-%s", cfg.Model),
		Model:   cfg.Model,
		Content: text,
	}
	if out.Usage != nil {
		resp.Usage = providers.Usage{
			PromptTokens:     int(aws.ToInt32(out.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}
	return resp, nil
}

func extractText(output types.ConverseOutput) string {
	msg, ok := output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var parts []string
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok && text.Value != "" {
			parts = append(parts, text.Value)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (c *client) getOrCreateClient(ctx context.Context, opts Options) (ConverseAPI, error) {
	key := poolKey(opts)
	if v, ok := c.clientPool.Load(key); ok {
		if runtime, ok := v.(ConverseAPI); ok {
			return runtime, nil
		}
	}
	runtime, err := c.build(ctx, opts)
	if err != nil {
		return nil, err
	}
	c.clientPool.Store(key, runtime)
	return runtime, nil
}

// poolKey changes whenever any credential does, so rotated secrets get a
// fresh runtime client.
func poolKey(opts Options) string {
	secret := sha256.Sum256([]byte(opts.SecretKey + "|" + opts.SessionToken))
	return opts.Region + "|" + opts.AccessKey + "|" + hex.EncodeToString(secret[:])
}

func buildRuntime(ctx context.Context, opts Options) (ConverseAPI, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
		config.WithRetryMaxAttempts(1),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     opts.AccessKey,
					SecretAccessKey: opts.SecretKey,
					SessionToken:    opts.SessionToken,
				}, nil
			},
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}
