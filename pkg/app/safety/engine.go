package safety

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/NeuralTrust/SafeFacts/pkg/app/generation"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/verdict"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/filter"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/prometheus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultUnknownRatingAge = 18
	DefaultMaxTitleLength   = 200
)

type Settings struct {
	// UnknownRatingAge is the effective age used when the generator gives
	// no rating.
	UnknownRatingAge int
	// PostFilterAdult also runs the keyword check on generated output for
	// the Adult persona.
	PostFilterAdult bool
	// MaxTitleLength bounds the title in runes. Zero means the default.
	MaxTitleLength int
}

func DefaultSettings() Settings {
	return Settings{
		UnknownRatingAge: DefaultUnknownRatingAge,
		MaxTitleLength:   DefaultMaxTitleLength,
	}
}

//go:generate mockery --name=Engine --dir=. --output=./mocks --filename=engine_mock.go --case=underscore --with-expecter

// Engine turns a title and a persona into a verdict. Decide never panics and
// never returns generator internals to the caller.
type Engine interface {
	Decide(ctx context.Context, title string, p persona.Persona) verdict.Verdict
}

type engine struct {
	gateway  generation.Gateway
	policy   *persona.Policy
	filter   *filter.KeywordFilter
	settings Settings
	logger   *logrus.Logger
}

func NewEngine(
	gateway generation.Gateway,
	policy *persona.Policy,
	keywordFilter *filter.KeywordFilter,
	settings Settings,
	logger *logrus.Logger,
) Engine {
	if policy == nil {
		policy = persona.DefaultPolicy()
	}
	if keywordFilter == nil {
		keywordFilter = filter.NewKeywordFilter()
	}
	if settings.MaxTitleLength <= 0 {
		settings.MaxTitleLength = DefaultMaxTitleLength
	}
	if settings.UnknownRatingAge <= 0 {
		settings.UnknownRatingAge = DefaultUnknownRatingAge
	}
	return &engine{
		gateway:  gateway,
		policy:   policy,
		filter:   keywordFilter,
		settings: settings,
		logger:   logger,
	}
}

func (e *engine) Decide(ctx context.Context, title string, p persona.Persona) (v verdict.Verdict) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := e.logger.WithFields(logrus.Fields{
		"request_id": requestID(ctx),
		"persona":    p.String(),
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", fmt.Sprintf("%v", r)).Error("safety decision panicked")
			v = verdict.NewBlocked(verdict.ReasonInternal, MsgGeneratorError)
		}
		prometheus.ObserveVerdict(p.String(), string(v.Kind), string(v.Reason))
		log.WithFields(logrus.Fields{
			"verdict": v.Kind,
			"reason":  v.Reason,
		}).Info("safety verdict")
	}()

	title = strings.TrimSpace(title)
	if title == "" {
		return verdict.NewBlocked(verdict.ReasonInput, MsgEmptyTitle)
	}
	if utf8.RuneCountInString(title) > e.settings.MaxTitleLength {
		return verdict.NewBlocked(verdict.ReasonInput, MsgTitleTooLong)
	}

	if p != persona.Adult {
		if keyword, hit := e.filter.Match(title); hit {
			log.WithField("keyword", keyword).Debug("title blocked before generation")
			return verdict.NewBlocked(verdict.ReasonPreFilter, preFilterMessage(p))
		}
	}

	out := e.gateway.Generate(ctx, title, p)
	filtered := p != persona.Adult || e.settings.PostFilterAdult

	switch out.Kind {
	case generation.KindRefusal:
		if out.Guardrail {
			return verdict.NewBlocked(verdict.ReasonGuardrail, MsgGuardrail)
		}
		if out.Explanation != nil {
			explanation := strings.TrimSpace(*out.Explanation)
			if explanation != "" && !(filtered && e.filter.IsLikelyAdult(explanation)) {
				return verdict.NewBlocked(verdict.ReasonRefusal, explanation)
			}
		}
		return verdict.NewBlocked(verdict.ReasonRefusal, MsgRefusal)
	case generation.KindStructured:
		if out.Assessment == nil {
			log.Error("generator returned structured outcome without assessment")
			return verdict.NewBlocked(verdict.ReasonGeneratorError, MsgGeneratorError)
		}
	default:
		log.WithError(out.Err).Warn("generation failed")
		return verdict.NewBlocked(verdict.ReasonGeneratorError, MsgGeneratorError)
	}

	a := out.Assessment

	if !a.IsMovie {
		note := a.NotMovieExplanation
		if note != nil && filtered && e.filter.IsLikelyAdult(*note) {
			note = nil
		}
		return verdict.NewNotFound(notMovieMessage(title, note))
	}

	effectiveAge := e.settings.UnknownRatingAge
	if a.AgeRating != nil {
		effectiveAge = *a.AgeRating
	}
	echoTitle := !filtered || !e.filter.IsLikelyAdult(a.NormalizedTitle)

	if effectiveAge > e.policy.MaxAllowedAge(p) {
		log.WithFields(logrus.Fields{
			"effective_age": effectiveAge,
			"rated":         a.AgeRating != nil,
		}).Debug("rating above persona bound")
		return verdict.NewBlocked(verdict.ReasonAgeRating, ageRatingMessage(subject(a.NormalizedTitle, echoTitle), effectiveAge, p))
	}

	if filtered && (e.filter.IsLikelyAdult(a.NormalizedTitle) || e.filter.IsLikelyAdult(a.SafeFactAndCuriosities)) {
		return verdict.NewBlocked(verdict.ReasonPostFilter, postFilterMessage(subject(a.NormalizedTitle, echoTitle), p))
	}

	return verdict.NewApproved(a.SafeFactAndCuriosities)
}

type requestIDKey struct{}

// WithRequestID attaches the id used to correlate verdict logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
