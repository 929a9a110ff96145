package mocks

import (
	"context"

	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/verdict"
	"github.com/stretchr/testify/mock"
)

type Engine struct {
	mock.Mock
}

func (m *Engine) Decide(ctx context.Context, title string, p persona.Persona) verdict.Verdict {
	args := m.Called(ctx, title, p)
	v, ok := args.Get(0).(verdict.Verdict)
	if !ok {
		panic("assert: arguments: Decide(0) is not a verdict.Verdict")
	}
	return v
}
