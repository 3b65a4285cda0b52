package copilot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mhpenta/copilot/capture"
)

// Runner turns agent invocations into generation requests. It is the
// boundary at which every error becomes display text.
type Runner struct {
	client   Generator
	capturer capture.Capturer
	logger   *slog.Logger
}

// Ensure Runner implements Invoker.
var _ Invoker = (*Runner)(nil)

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithCapturer sets the screen source used by agents that capture the screen.
func WithCapturer(c capture.Capturer) RunnerOption {
	return func(r *Runner) {
		r.capturer = c
	}
}

// WithRunnerLogger sets a structured logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner backed by client. The primary display is
// captured unless WithCapturer says otherwise.
func NewRunner(client Generator, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:   client,
		capturer: capture.Screen{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke runs one agent: validate, capture if needed, generate.
// Exactly one request is issued when validation passes, none otherwise.
func (r *Runner) Invoke(ctx context.Context, agent Agent, input string) Outcome {
	id := uuid.NewString()
	start := time.Now()
	logger := r.logger.With("agent", agent.Name, "invocation_id", id)

	outcome := r.invoke(ctx, agent, input, logger)
	outcome.Agent = agent.Name
	outcome.InvocationID = id
	outcome.Duration = time.Since(start)

	if outcome.Err != nil {
		logger.Warn("agent invocation failed",
			"kind", outcome.Kind().String(),
			"duration_ms", outcome.Duration.Milliseconds(),
			"error", outcome.Err.Error(),
		)
	} else {
		logger.Info("agent invocation completed",
			"duration_ms", outcome.Duration.Milliseconds(),
		)
	}
	return outcome
}

func (r *Runner) invoke(ctx context.Context, agent Agent, input string, logger *slog.Logger) Outcome {
	if err := agent.Validate(input); err != nil {
		return Failed(agent.Name, err)
	}

	req := &GenerateRequest{
		Model:  agent.Model,
		Prompt: agent.Prompt(input),
	}

	if agent.CapturesScreen {
		img, err := r.captureScreen(ctx)
		if err != nil {
			return Failed(agent.Name, err)
		}
		logger.Debug("screen captured", "encoded_bytes", len(img))
		req.Images = []string{img}
	}

	result, err := r.client.Generate(ctx, req)
	if err != nil {
		return Failed(agent.Name, err)
	}

	if !result.HasResponse {
		return Outcome{Text: NoResponseText}
	}
	return Outcome{Text: result.Text}
}

func (r *Runner) captureScreen(ctx context.Context) (string, error) {
	if r.capturer == nil {
		return "", &UnexpectedError{Err: fmt.Errorf("screen capture: %w", ErrProviderNotConfigured)}
	}
	img, err := capture.CaptureBase64PNG(ctx, r.capturer)
	if err != nil {
		return "", &UnexpectedError{Err: fmt.Errorf("screen capture failed: %w", err)}
	}
	return img, nil
}
