package safety_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/NeuralTrust/SafeFacts/pkg/app/generation"
	"github.com/NeuralTrust/SafeFacts/pkg/app/generation/mocks"
	"github.com/NeuralTrust/SafeFacts/pkg/app/safety"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/assessment"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
	"github.com/NeuralTrust/SafeFacts/pkg/domain/verdict"
	"github.com/NeuralTrust/SafeFacts/pkg/infra/filter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const cleanFact = "Toy Story was the first feature film made entirely with computer animation."

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newEngine(gw generation.Gateway, settings safety.Settings) safety.Engine {
	return safety.NewEngine(gw, persona.DefaultPolicy(), filter.NewKeywordFilter(), settings, newLogger())
}

func stubGateway(out generation.Outcome) *mocks.Gateway {
	gw := new(mocks.Gateway)
	gw.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(out)
	return gw
}

func movie(title string, rating *int, fact string) generation.Outcome {
	return generation.Structured(&assessment.Assessment{
		NormalizedTitle:        title,
		IsMovie:                true,
		AgeRating:              rating,
		SafeFactAndCuriosities: fact,
	})
}

func intPtr(v int) *int {
	return &v
}

func strPtr(s string) *string {
	return &s
}

func TestDecide_Scenarios(t *testing.T) {
	t.Run("violent movie for child is blocked", func(t *testing.T) {
		gw := stubGateway(movie("Die Hard", intPtr(16), "Bruce Willis did many of his own stunts."))

		v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Die Hard", persona.Child)

		assert.Equal(t, verdict.Blocked, v.Kind)
		assert.Equal(t, verdict.ReasonAgeRating, v.Reason)
		assert.Contains(t, v.Message, "around age 16+")
		assert.NotContains(t, v.Message, "stunts")
		gw.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("family movie for child is approved", func(t *testing.T) {
		gw := stubGateway(movie("Toy Story", intPtr(7), cleanFact))

		v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Toy Story", persona.Child)

		assert.Equal(t, verdict.NewApproved(cleanFact), v)
	})

	t.Run("unknown title for adult is not found", func(t *testing.T) {
		gw := stubGateway(generation.Structured(&assessment.Assessment{
			NormalizedTitle:     "xyz123notamovie",
			IsMovie:             false,
			NotMovieExplanation: strPtr("no record found"),
		}))

		v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "xyz123notamovie", persona.Adult)

		assert.Equal(t, verdict.NotFound, v.Kind)
		assert.Contains(t, v.Message, "no record found")
	})

	t.Run("adult title for teenager never reaches the generator", func(t *testing.T) {
		gw := new(mocks.Gateway)

		v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "explicit content movie", persona.Teenager)

		assert.Equal(t, verdict.Blocked, v.Kind)
		assert.Equal(t, verdict.ReasonPreFilter, v.Reason)
		assert.NotContains(t, v.Message, "explicit")
		gw.AssertNumberOfCalls(t, "Generate", 0)
	})

	t.Run("transport error for adult is blocked with generic message", func(t *testing.T) {
		gw := stubGateway(generation.Failure(errors.New("dial tcp 10.0.0.1:443: connection refused")))

		v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "SomeTitle", persona.Adult)

		assert.Equal(t, verdict.NewBlocked(verdict.ReasonGeneratorError, safety.MsgGeneratorError), v)
		assert.NotContains(t, v.Message, "dial tcp")
	})
}

func TestDecide_InputValidation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "empty", title: "", want: safety.MsgEmptyTitle},
		{name: "whitespace", title: " \t\n ", want: safety.MsgEmptyTitle},
		{name: "too long", title: strings.Repeat("a", safety.DefaultMaxTitleLength+1), want: safety.MsgTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range persona.All() {
				gw := new(mocks.Gateway)

				v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), tt.title, p)

				assert.Equal(t, verdict.NewBlocked(verdict.ReasonInput, tt.want), v)
				gw.AssertNumberOfCalls(t, "Generate", 0)
			}
		})
	}
}

func TestDecide_TitleIsTrimmed(t *testing.T) {
	gw := new(mocks.Gateway)
	gw.On("Generate", mock.Anything, "Toy Story", persona.Child).Return(movie("Toy Story", intPtr(7), cleanFact))

	v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "  Toy Story \n", persona.Child)

	assert.True(t, v.IsApproved())
	gw.AssertExpectations(t)
}

func TestDecide_PreFilterSkipsGenerator(t *testing.T) {
	for _, keyword := range filter.DefaultKeywords {
		for _, p := range []persona.Persona{persona.Child, persona.Teenager} {
			t.Run(fmt.Sprintf("%s/%s", p, keyword), func(t *testing.T) {
				gw := new(mocks.Gateway)
				title := "The " + strings.ToUpper(keyword) + " Movie"

				v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), title, p)

				assert.Equal(t, verdict.Blocked, v.Kind)
				assert.Equal(t, verdict.ReasonPreFilter, v.Reason)
				assert.NotContains(t, v.Message, title)
				assert.Contains(t, v.Message, strings.ToLower(p.String())+" audience")
				gw.AssertNumberOfCalls(t, "Generate", 0)
			})
		}
	}
}

func TestDecide_AdultSkipsPreFilter(t *testing.T) {
	gw := stubGateway(movie("Explicit Content Movie", intPtr(18), "A drama about censorship."))

	v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "explicit content movie", persona.Adult)

	assert.True(t, v.IsApproved())
	gw.AssertNumberOfCalls(t, "Generate", 1)
}

func TestDecide_ExtraKeywords(t *testing.T) {
	gw := new(mocks.Gateway)
	engine := safety.NewEngine(gw, persona.DefaultPolicy(), filter.NewKeywordFilter("gore"), safety.DefaultSettings(), newLogger())

	v := engine.Decide(context.Background(), "Gore Festival", persona.Child)

	assert.Equal(t, verdict.ReasonPreFilter, v.Reason)
	gw.AssertNumberOfCalls(t, "Generate", 0)
}

func TestDecide_NotMovieNeverSurfacesFact(t *testing.T) {
	const invented = "This secret fact must never be shown."
	ratings := []*int{nil, intPtr(0), intPtr(7), intPtr(18)}
	notes := []*string{nil, strPtr(""), strPtr("a TV series")}

	for _, p := range persona.All() {
		for _, rating := range ratings {
			for _, note := range notes {
				gw := stubGateway(generation.Structured(&assessment.Assessment{
					NormalizedTitle:        "Breaking Bad",
					IsMovie:                false,
					AgeRating:              rating,
					NotMovieExplanation:    note,
					SafeFactAndCuriosities: invented,
				}))

				v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Breaking Bad", p)

				assert.Equal(t, verdict.NotFound, v.Kind)
				assert.NotEqual(t, invented, v.Message)
				assert.NotContains(t, v.Message, invented)
				assert.Contains(t, v.Message, "'Breaking Bad' is not a movie")
			}
		}
	}
}

func TestDecide_NotMovieNoteIsFiltered(t *testing.T) {
	gw := stubGateway(generation.Structured(&assessment.Assessment{
		NormalizedTitle:     "Late Show",
		IsMovie:             false,
		NotMovieExplanation: strPtr("an adult website"),
	}))

	v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Late Show", persona.Child)

	assert.Equal(t, verdict.NotFound, v.Kind)
	assert.NotContains(t, v.Message, "adult website")
}

func TestDecide_AbsentRatingIsAdultOnly(t *testing.T) {
	tests := []struct {
		persona persona.Persona
		want    verdict.Kind
	}{
		{persona: persona.Child, want: verdict.Blocked},
		{persona: persona.Teenager, want: verdict.Blocked},
		{persona: persona.Adult, want: verdict.Approved},
	}

	for _, tt := range tests {
		t.Run(tt.persona.String(), func(t *testing.T) {
			gw := stubGateway(movie("Obscure Film", nil, cleanFact))

			v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Obscure Film", tt.persona)

			assert.Equal(t, tt.want, v.Kind)
			if tt.want == verdict.Blocked {
				assert.Equal(t, verdict.ReasonAgeRating, v.Reason)
				assert.Contains(t, v.Message, "around age 18+")
			}
		})
	}
}

func TestDecide_ApprovedIffWithinBoundAndClean(t *testing.T) {
	policy := persona.DefaultPolicy()
	keywordFilter := filter.NewKeywordFilter()
	ratings := append([]int{0, 17, 99, 100}, assessment.RatingScale...)
	contents := []struct {
		title string
		fact  string
	}{
		{title: "Toy Story", fact: cleanFact},
		{title: "Toy Story", fact: "It was later released as an NSFW parody."},
		{title: "Hardcore Henry", fact: "Shot almost entirely with GoPro cameras."},
	}

	for _, p := range persona.All() {
		for _, r := range ratings {
			for _, c := range contents {
				gw := stubGateway(movie(c.title, intPtr(r), c.fact))

				v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "some movie", p)

				dirty := keywordFilter.IsLikelyAdult(c.title) || keywordFilter.IsLikelyAdult(c.fact)
				want := r <= policy.MaxAllowedAge(p) && (p == persona.Adult || !dirty)

				assert.Equal(t, want, v.IsApproved(), "persona=%s rating=%d title=%q", p, r, c.title)
				if v.IsApproved() {
					assert.Equal(t, c.fact, v.Message)
				} else {
					assert.NotEqual(t, c.fact, v.Message)
				}
			}
		}
	}
}

func TestDecide_PostFilterDoesNotEchoKeyword(t *testing.T) {
	gw := stubGateway(movie("Smut Story", intPtr(7), cleanFact))

	v := newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "a cartoon", persona.Child)

	assert.Equal(t, verdict.ReasonPostFilter, v.Reason)
	assert.NotContains(t, strings.ToLower(v.Message), "smut")
	assert.Contains(t, v.Message, "child audience")
}

func TestDecide_PostFilterAdultSetting(t *testing.T) {
	out := movie("Toy Story", intPtr(7), "Includes an explicit scene.")

	v := newEngine(stubGateway(out), safety.DefaultSettings()).Decide(context.Background(), "Toy Story", persona.Adult)
	assert.True(t, v.IsApproved())

	settings := safety.DefaultSettings()
	settings.PostFilterAdult = true
	v = newEngine(stubGateway(out), settings).Decide(context.Background(), "Toy Story", persona.Adult)
	assert.Equal(t, verdict.ReasonPostFilter, v.Reason)
}

func TestDecide_UnknownRatingAgeSetting(t *testing.T) {
	settings := safety.DefaultSettings()
	settings.UnknownRatingAge = 16

	v := newEngine(stubGateway(movie("Obscure Film", nil, cleanFact)), settings).
		Decide(context.Background(), "Obscure Film", persona.Teenager)

	assert.True(t, v.IsApproved())
}

func TestDecide_CustomPolicy(t *testing.T) {
	policy, err := persona.NewPolicy(7, 12, 18)
	require.NoError(t, err)
	engine := safety.NewEngine(stubGateway(movie("Up", intPtr(10), cleanFact)), policy, nil, safety.DefaultSettings(), newLogger())

	v := engine.Decide(context.Background(), "Up", persona.Child)

	assert.Equal(t, verdict.ReasonAgeRating, v.Reason)
}

func TestDecide_Refusals(t *testing.T) {
	tests := []struct {
		name string
		out  generation.Outcome
		want verdict.Verdict
	}{
		{
			name: "guardrail",
			out:  generation.GuardrailBlock(),
			want: verdict.NewBlocked(verdict.ReasonGuardrail, safety.MsgGuardrail),
		},
		{
			name: "refusal with explanation",
			out:  generation.Refusal(strPtr("I can't discuss that title.")),
			want: verdict.NewBlocked(verdict.ReasonRefusal, "I can't discuss that title."),
		},
		{
			name: "refusal without explanation",
			out:  generation.Refusal(nil),
			want: verdict.NewBlocked(verdict.ReasonRefusal, safety.MsgRefusal),
		},
		{
			name: "refusal with blank explanation",
			out:  generation.Refusal(strPtr("  ")),
			want: verdict.NewBlocked(verdict.ReasonRefusal, safety.MsgRefusal),
		},
		{
			name: "structured without assessment",
			out:  generation.Outcome{Kind: generation.KindStructured},
			want: verdict.NewBlocked(verdict.ReasonGeneratorError, safety.MsgGeneratorError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newEngine(stubGateway(tt.out), safety.DefaultSettings()).Decide(context.Background(), "Some Title", persona.Teenager)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestDecide_RefusalExplanationIsFiltered(t *testing.T) {
	explanation := "This title is explicit adult content."
	tests := []struct {
		name     string
		persona  persona.Persona
		settings safety.Settings
		want     string
	}{
		{name: "child", persona: persona.Child, settings: safety.DefaultSettings(), want: safety.MsgRefusal},
		{name: "teenager", persona: persona.Teenager, settings: safety.DefaultSettings(), want: safety.MsgRefusal},
		{name: "adult", persona: persona.Adult, settings: safety.DefaultSettings(), want: explanation},
		{
			name:     "adult with post filter",
			persona:  persona.Adult,
			settings: safety.Settings{PostFilterAdult: true},
			want:     safety.MsgRefusal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newEngine(stubGateway(generation.Refusal(strPtr(explanation))), tt.settings).
				Decide(context.Background(), "Some Title", tt.persona)
			assert.Equal(t, verdict.NewBlocked(verdict.ReasonRefusal, tt.want), v)
		})
	}
}

func TestDecide_RecoversFromPanics(t *testing.T) {
	gw := new(mocks.Gateway)
	gw.On("Generate", mock.Anything, mock.Anything, mock.Anything).Panic("gateway bug")

	var v verdict.Verdict
	assert.NotPanics(t, func() {
		v = newEngine(gw, safety.DefaultSettings()).Decide(context.Background(), "Toy Story", persona.Child)
	})
	assert.Equal(t, verdict.NewBlocked(verdict.ReasonInternal, safety.MsgGeneratorError), v)
}

func TestDecide_Idempotent(t *testing.T) {
	outcomes := []generation.Outcome{
		movie("Toy Story", intPtr(7), cleanFact),
		movie("Die Hard", intPtr(16), cleanFact),
		movie("Obscure", nil, cleanFact),
		generation.Refusal(strPtr("no")),
		generation.Failure(errors.New("boom")),
	}

	for _, out := range outcomes {
		for _, p := range persona.All() {
			engine := newEngine(stubGateway(out), safety.DefaultSettings())
			first := engine.Decide(context.Background(), "Some Title", p)
			second := engine.Decide(context.Background(), "Some Title", p)
			assert.Equal(t, first, second)
		}
	}
}

func TestDecide_Monotonic(t *testing.T) {
	ratings := append([]*int{nil}, intPtr(0), intPtr(17), intPtr(18), intPtr(99))
	for _, r := range assessment.RatingScale {
		ratings = append(ratings, intPtr(r))
	}
	facts := []string{cleanFact, "An erotic thriller."}

	for _, settings := range []safety.Settings{safety.DefaultSettings(), {PostFilterAdult: true}} {
		for _, r := range ratings {
			for _, fact := range facts {
				out := movie("Some Movie", r, fact)
				engine := newEngine(stubGateway(out), settings)

				child := engine.Decide(context.Background(), "Some Movie", persona.Child)
				teen := engine.Decide(context.Background(), "Some Movie", persona.Teenager)
				adult := engine.Decide(context.Background(), "Some Movie", persona.Adult)

				if child.IsApproved() {
					assert.True(t, teen.IsApproved())
				}
				if teen.IsApproved() {
					assert.True(t, adult.IsApproved())
				}
			}
		}
	}
}

func TestDecide_RequestIDFromContext(t *testing.T) {
	gw := new(mocks.Gateway)
	ctx := safety.WithRequestID(context.Background(), "req-123")
	gw.On("Generate", ctx, "Toy Story", persona.Child).Return(movie("Toy Story", intPtr(7), cleanFact))

	v := newEngine(gw, safety.DefaultSettings()).Decide(ctx, "Toy Story", persona.Child)

	assert.True(t, v.IsApproved())
	gw.AssertExpectations(t)
}
