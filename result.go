package copilot

import "time"

// GenerateResult holds the complete result of a generation request.
type GenerateResult struct {
	// Text contains the response text
	Text string

	// HasResponse reports whether the server body carried a response field.
	// When false the manager replaces Text with NoResponseText.
	HasResponse bool

	// Model is the model that served the request, as reported by the server
	Model string

	// CreatedAt is the server timestamp, verbatim
	CreatedAt string

	Done       bool
	DoneReason string

	// Usage contains token information
	Usage *UsageMetadata
}

// UsageMetadata contains usage information for logging and rate limiting.
type UsageMetadata struct {
	PromptTokens   int
	ResponseTokens int
	TotalTokens    int
	TotalDuration  time.Duration
}

// ErrorKind classifies an Outcome.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindCommunication
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindCommunication:
		return "communication"
	default:
		return "unexpected"
	}
}

// Outcome is the result of one agent invocation: either response text or a
// classified error. It is what ends up in the display area.
type Outcome struct {
	Agent        string
	InvocationID string
	Text         string
	Err          error
	Duration     time.Duration
}

// Display returns the text to show for this outcome.
func (o Outcome) Display() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Text
}

// Kind reports which part of the error taxonomy the outcome falls into.
func (o Outcome) Kind() ErrorKind {
	switch {
	case o.Err == nil:
		return KindNone
	case IsValidationError(o.Err):
		return KindValidation
	case IsCommunicationError(o.Err):
		return KindCommunication
	default:
		return KindUnexpected
	}
}

// OK reports whether the invocation produced response text.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Failed builds an Outcome from an error, classifying it if needed.
func Failed(agent string, err error) Outcome {
	if !IsValidationError(err) && !IsCommunicationError(err) && !IsUnexpectedError(err) {
		err = &UnexpectedError{Err: err}
	}
	return Outcome{Agent: agent, Err: err}
}
