package mocks

import (
	"context"
	"fmt"

	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/stretchr/testify/mock"
)

type Client struct {
	mock.Mock
}

func (m *Client) Generate(ctx context.Context, config *providers.Config, req providers.Request) (*providers.Response, error) {
	args := m.Called(ctx, config, req)
	resp, ok := args.Get(0).(*providers.Response)
	if !ok && args.Get(0) != nil {
		return nil, fmt.Errorf("expected *providers.Response, got %T", args.Get(0))
	}
	return resp, args.Error(1)
}
