package persona

import (
	"fmt"
)

const (
	DefaultChildMaxAge    = 12
	DefaultTeenagerMaxAge = 17
	DefaultAdultMaxAge    = 99
)

// Policy maps each persona to the highest age rating it may see (inclusive).
type Policy struct {
	maxAge map[Persona]int
}

func DefaultPolicy() *Policy {
	return &Policy{
		maxAge: map[Persona]int{
			Child:    DefaultChildMaxAge,
			Teenager: DefaultTeenagerMaxAge,
			Adult:    DefaultAdultMaxAge,
		},
	}
}

// NewPolicy builds a policy from tunable bounds. Bounds must not decrease from
// Child to Adult, otherwise a looser audience could be denied what a stricter
// one is shown.
func NewPolicy(child, teenager, adult int) (*Policy, error) {
	if child < 0 || teenager < 0 || adult < 0 {
		return nil, fmt.Errorf("max age bounds must be non-negative")
	}
	if child > teenager || teenager > adult {
		return nil, fmt.Errorf(
			"max age bounds must be monotonic: child=%d teenager=%d adult=%d",
			child, teenager, adult,
		)
	}
	return &Policy{
		maxAge: map[Persona]int{
			Child:    child,
			Teenager: teenager,
			Adult:    adult,
		},
	}, nil
}

// MaxAllowedAge returns the inclusive bound for p. Unknown personas get the
// strictest bound.
func (p *Policy) MaxAllowedAge(persona Persona) int {
	if age, ok := p.maxAge[persona]; ok {
		return age
	}
	return p.maxAge[Child]
}
