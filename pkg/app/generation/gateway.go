package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NeuralTrust/SafeFacts/pkg/domain/assessment"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/httpx"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/prometheus"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/providers"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout            = 30 * time.Second
	defaultExplanationTimeout = 5 * time.Second
)

//go:generate mockery --name=Gateway --dir=. --output=./mocks --filename=gateway_mock.go --case=underscore --with-expecter

type Gateway interface {
	Generate(ctx context.Context, title string, p persona.Persona) Outcome
}

type Options struct {
	Provider           string
	Config             *providers.Config
	Timeout            time.Duration
	ExplanationTimeout time.Duration
}

type gateway struct {
	client  providers.Client
	breaker httpx.CircuitBreaker
	opts    Options
	logger  *logrus.Logger
}

func NewGateway(
	client providers.Client,
	breaker httpx.CircuitBreaker,
	opts Options,
	logger *logrus.Logger,
) Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.ExplanationTimeout <= 0 {
		opts.ExplanationTimeout = defaultExplanationTimeout
	}
	if opts.Config == nil {
		opts.Config = &providers.Config{}
	}
	return &gateway{
		client:  client,
		breaker: breaker,
		opts:    opts,
		logger:  logger,
	}
}

func (g *gateway) Generate(ctx context.Context, title string, p persona.Persona) (out Outcome) {
	start := time.Now()
	defer func() {
		prometheus.ObserveGeneration(g.opts.Provider, out.Kind.String(), float64(time.Since(start).Milliseconds()))
	}()

	req := providers.Request{
		SystemPrompt: SystemPrompt(),
		Prompt:       UserPrompt(title, p),
		Schema: providers.Schema{
			Name:       assessment.SchemaName,
			Definition: assessment.Schema(),
		},
	}

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	var (
		resp     *providers.Response
		decision error
	)
	// Guardrail blocks and refusals are answers, not failures, so they are
	// kept out of the breaker counts.
	err := g.breaker.Execute(func() error {
		r, err := g.client.Generate(callCtx, g.opts.Config, req)
		if err != nil {
			if providers.IsGeneratorDecision(err) {
				decision = err
				return nil
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("generator timed out after %s: %w", g.opts.Timeout, err)
		}
		return Failure(err)
	}
	if decision != nil {
		return g.fromDecision(ctx, decision)
	}
	if resp == nil {
		return Failure(providers.ErrEmptyResponse)
	}

	parsed, err := assessment.Parse(resp.Content)
	if err != nil {
		return Failure(fmt.Errorf("invalid generator output: %w", err))
	}

	g.logger.WithFields(logrus.Fields{
		"provider":      g.opts.Provider,
		"model":         resp.Model,
		"total_tokens":  resp.Usage.TotalTokens,
		"response_id":   resp.ID,
		"generation_ms": time.Since(start).Milliseconds(),
	}).Debug("generator returned assessment")

	return Structured(parsed)
}

func (g *gateway) fromDecision(ctx context.Context, err error) Outcome {
	var guardrail *providers.GuardrailError
	if errors.As(err, &guardrail) {
		g.logger.WithFields(logrus.Fields{
			"provider": guardrail.Provider,
			"reason":   guardrail.Reason,
		}).Info("generator guardrail blocked request")
		return GuardrailBlock()
	}

	var refusal *providers.RefusalError
	if errors.As(err, &refusal) {
		return Refusal(g.resolveExplanation(ctx, refusal))
	}

	return Failure(err)
}

// resolveExplanation fetches the refusal text on its own goroutine, bounded
// by the explanation timeout. Only the resulting string is handed back.
func (g *gateway) resolveExplanation(ctx context.Context, refusal *providers.RefusalError) *string {
	ctx, cancel := context.WithTimeout(ctx, g.opts.ExplanationTimeout)
	defer cancel()

	result := make(chan string, 1)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("explanation panic: %v", r)
			}
		}()
		text, err := refusal.Explanation(egCtx)
		if err != nil {
			return err
		}
		result <- strings.TrimSpace(text)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- eg.Wait() }()

	select {
	case <-ctx.Done():
		g.logger.WithField("provider", refusal.Provider).Warn("refusal explanation timed out")
		return nil
	case err := <-done:
		if err != nil {
			g.logger.WithError(err).WithField("provider", refusal.Provider).Debug("refusal explanation unavailable")
			return nil
		}
	}

	text := <-result
	if text == "" {
		return nil
	}
	return &text
}
