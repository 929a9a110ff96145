package generation

import "github.com/NeuralTrust/SafeFacts/pkg/domain/assessment"

type Kind int

const (
	KindStructured Kind = iota
	KindRefusal
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindRefusal:
		return "refusal"
	default:
		return "error"
	}
}

// Outcome is the normalized result of one generator call. Exactly one of
// Assessment (structured), Explanation (refusal, may be nil) or Err (error)
// is meaningful, as indicated by Kind.
type Outcome struct {
	Kind        Kind
	Assessment  *assessment.Assessment
	Explanation *string
	// Guardrail is set on refusals raised by the provider's safety system
	// rather than by the model itself. Explanation is nil in that case.
	Guardrail bool
	Err       error
}

func Structured(a *assessment.Assessment) Outcome {
	return Outcome{Kind: KindStructured, Assessment: a}
}

func Refusal(explanation *string) Outcome {
	return Outcome{Kind: KindRefusal, Explanation: explanation}
}

func GuardrailBlock() Outcome {
	return Outcome{Kind: KindRefusal, Guardrail: true}
}

func Failure(err error) Outcome {
	return Outcome{Kind: KindError, Err: err}
}
