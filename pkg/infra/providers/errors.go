package providers

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingAPIKey = errors.New("API key is required")
	ErrMissingModel  = errors.New("model is required")
	ErrEmptyResponse = errors.New("no completions returned")
)

// GuardrailError is returned when the provider's own safety system blocked
// the prompt or the output.
type GuardrailError struct {
	Provider string
	Reason   string
}

func NewGuardrailError(provider, reason string) *GuardrailError {
	return &GuardrailError{Provider: provider, Reason: reason}
}

func (e *GuardrailError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: blocked by provider guardrail", e.Provider)
	}
	return fmt.Sprintf("%s: blocked by provider guardrail: %s", e.Provider, e.Reason)
}

// ExplanationFunc lazily produces the text of a refusal.
type ExplanationFunc func(ctx context.Context) (string, error)

// RefusalError is returned when the model declined to answer. The explanation
// is resolved on demand through Explanation.
type RefusalError struct {
	Provider string
	explain  ExplanationFunc
}

func NewRefusalError(provider string, explain ExplanationFunc) *RefusalError {
	return &RefusalError{Provider: provider, explain: explain}
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("%s: model refused to answer", e.Provider)
}

func (e *RefusalError) Explanation(ctx context.Context) (string, error) {
	if e.explain == nil {
		return "", fmt.Errorf("%s: refusal carries no explanation", e.Provider)
	}
	return e.explain(ctx)
}

// StaticExplanation wraps an explanation that is already known.
func StaticExplanation(text string) ExplanationFunc {
	return func(context.Context) (string, error) {
		if text == "" {
			return "", fmt.Errorf("empty refusal explanation")
		}
		return text, nil
	}
}

// IsGeneratorDecision reports whether err is a guardrail block or a refusal,
// that is a deliberate answer of the provider rather than a failure.
func IsGeneratorDecision(err error) bool {
	var guardrail *GuardrailError
	var refusal *RefusalError
	return errors.As(err, &guardrail) || errors.As(err, &refusal)
}
