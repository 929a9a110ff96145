package safety

import (
	"fmt"
	"strings"

	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
)

const (
	MsgEmptyTitle     = "Please enter a movie title first."
	MsgTitleTooLong   = "That title is too long. Please enter a shorter movie title."
	MsgGuardrail      = "This request can't be generated in this app. Try a different movie title."
	MsgRefusal        = "I couldn't generate that safely. Please try another movie."
	MsgGeneratorError = "Something went wrong while generating. Please try again."
)

func audience(p persona.Persona) string {
	return strings.ToLower(p.String())
}

func preFilterMessage(p persona.Persona) string {
	return fmt.Sprintf(
		"This title looks adult-oriented and isn't suitable for the %s audience. Try another movie.",
		audience(p),
	)
}

func notMovieMessage(title string, note *string) string {
	detail := ""
	if note != nil && strings.TrimSpace(*note) != "" {
		detail = fmt.Sprintf(" (%s)", strings.TrimSpace(*note))
	}
	return fmt.Sprintf(
		"It looks like '%s' is not a movie%s. I wasn't able to find a movie to generate a fact for. Try another title.",
		title, detail,
	)
}

// subject is the quoted title, or a neutral phrase when the title itself
// must not be echoed.
func subject(title string, echo bool) string {
	if !echo || title == "" {
		return "This movie"
	}
	return "'" + title + "'"
}

func ageRatingMessage(subject string, age int, p persona.Persona) string {
	return fmt.Sprintf(
		"%s appears to be appropriate for around age %d+, which is above the %s audience. "+
			"I won't share details, but you can try a different movie.",
		subject, age, audience(p),
	)
}

func postFilterMessage(subject string, p persona.Persona) string {
	return fmt.Sprintf(
		"%s appears to be intended for adults, so I can't share details for the %s audience.",
		subject, audience(p),
	)
}
