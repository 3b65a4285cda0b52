package copilot

import "context"

// Generator is the core interface for text generation backends.
// Implement this interface to add support for new inference servers.
//
// The first model returned by Models() is considered the default model.
type Generator interface {
	// Generate sends a single non-streaming generation request and returns
	// the complete result.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Models returns the model definitions served by this backend.
	// The first model in the list is the default.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// Invoker runs one agent invocation end to end and never returns an error:
// every failure is folded into the Outcome.
type Invoker interface {
	Invoke(ctx context.Context, agent Agent, input string) Outcome
}
