package verdict

type Kind string

const (
	Blocked  Kind = "blocked"
	NotFound Kind = "not_found"
	Approved Kind = "approved"
)

// Reason records which gate produced a verdict. It is for logs and metrics;
// users only ever see Message.
type Reason string

const (
	ReasonInput          Reason = "input"
	ReasonPreFilter      Reason = "pre_filter"
	ReasonGuardrail      Reason = "guardrail"
	ReasonRefusal        Reason = "refusal"
	ReasonGeneratorError Reason = "generator_error"
	ReasonNotMovie       Reason = "not_movie"
	ReasonAgeRating      Reason = "age_rating"
	ReasonPostFilter     Reason = "post_filter"
	ReasonApproved       Reason = "approved"
	ReasonInternal       Reason = "internal"
)

type Verdict struct {
	Kind    Kind   `json:"verdict"`
	Message string `json:"message"`
	Reason  Reason `json:"-"`
}

func NewBlocked(reason Reason, message string) Verdict {
	return Verdict{Kind: Blocked, Message: message, Reason: reason}
}

func NewNotFound(message string) Verdict {
	return Verdict{Kind: NotFound, Message: message, Reason: ReasonNotMovie}
}

func NewApproved(text string) Verdict {
	return Verdict{Kind: Approved, Message: text, Reason: ReasonApproved}
}

func (v Verdict) IsApproved() bool {
	return v.Kind == Approved
}
