package mocks

import (
	"context"

	"github.com/NeuralTrust/SafeFacts/pkg/app/generation"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func (m *Gateway) Generate(ctx context.Context, title string, p persona.Persona) generation.Outcome {
	args := m.Called(ctx, title, p)
	out, ok := args.Get(0).(generation.Outcome)
	if !ok {
		panic("assert: arguments: Generate(0) is not a generation.Outcome")
	}
	return out
}
