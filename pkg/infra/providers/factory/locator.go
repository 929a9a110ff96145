package factory

import (
	"fmt"
	"sync"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers/anthropic"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers/azure"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers/bedrock"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers/gemini"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers/openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderAzure     = "azure"
)

//go:generate mockery --name=ProviderLocator --dir=. --output=./mocks --filename=provider_locator_mock.go --case=underscore --with-expecter

type ProviderLocator interface {
	Get(provider string) (providers.Client, error)
}

type providerLocator struct {
	mu      sync.Mutex
	clients map[string]providers.Client
}

func NewProviderLocator() ProviderLocator {
	return &providerLocator{
		clients: make(map[string]providers.Client),
	}
}

// Get returns one shared client per provider so SDK connection pools are reused.
func (f *providerLocator) Get(provider string) (providers.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cli, ok := f.clients[provider]; ok {
		return cli, nil
	}

	var cli providers.Client
	switch provider {
	case ProviderOpenAI:
		cli = openai.NewOpenaiClient()
	case ProviderGoogle, ProviderGemini:
		cli = gemini.NewGeminiClient()
	case ProviderAnthropic:
		cli = anthropic.NewAnthropicClient()
	case ProviderBedrock:
		cli = bedrock.NewBedrockClient()
	case ProviderAzure:
		cli = azure.NewAzureClient()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	f.clients[provider] = cli
	return cli, nil
}
