package request

import (
	"fmt"

	"github.com/NeuralTrust/SafeFacts/pkg/domain/persona"
)

type DecideRequest struct {
	Title   string `json:"title"`
	Persona string `json:"persona"`
}

// Validate checks the persona only. An empty title is a verdict, not a bad
// request.
func (r *DecideRequest) Validate() (persona.Persona, error) {
	if r.Persona == "" {
		return "", fmt.Errorf("persona is required")
	}
	p, err := persona.Parse(r.Persona)
	if err != nil {
		return "", fmt.Errorf("persona must be one of Child, Teenager, Adult: %w", err)
	}
	return p, nil
}
