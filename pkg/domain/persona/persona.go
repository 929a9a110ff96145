package persona

import (
	"errors"
	"fmt"
	"strings"
)

type Persona string

const (
	Child    Persona = "Child"
	Teenager Persona = "Teenager"
	Adult    Persona = "Adult"
)

var ErrUnknownPersona = errors.New("unknown persona")

// All returns the personas from the strictest to the loosest audience.
func All() []Persona {
	return []Persona{Child, Teenager, Adult}
}

func (p Persona) String() string {
	return string(p)
}

func (p Persona) Valid() bool {
	switch p {
	case Child, Teenager, Adult:
		return true
	}
	return false
}

// Parse accepts persona labels case-insensitively. "teen" is kept as an alias
// for clients that still send the short label.
func Parse(raw string) (Persona, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "child":
		return Child, nil
	case "teenager", "teen":
		return Teenager, nil
	case "adult":
		return Adult, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPersona, raw)
	}
}
