// Package ui holds the front-end: a Controller that owns all UI state and a
// bubbletea Model that renders it in the terminal.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mhpenta/copilot"
)

var (
	// ErrUnknownAgent is returned for an agent name the controller does not know.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrBusy is returned when an agent's control is disabled by a call in flight.
	ErrBusy = errors.New("agent is busy")
)

// Task is the blocking part of an invocation. It is safe to run on any
// goroutine; its Outcome must be handed back through Controller.Finish.
type Task func() copilot.Outcome

// Controller owns the UI state: one shared display area plus the input text
// and busy flag of each agent control. Each control moves Idle -> Busy -> Idle.
//
// Controls of different agents may be busy at the same time; whichever
// finishes last owns the display.
type Controller struct {
	mu      sync.Mutex
	invoker copilot.Invoker
	agents  []copilot.Agent
	inputs  map[string]string
	busy    map[string]bool
	display string
	logger  *slog.Logger
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithAgents replaces the agent set.
func WithAgents(agents ...copilot.Agent) ControllerOption {
	return func(c *Controller) {
		c.agents = agents
	}
}

// WithLogger sets a structured logger for the controller.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a controller for the fixed agents.
func NewController(invoker copilot.Invoker, opts ...ControllerOption) *Controller {
	c := &Controller{
		invoker: invoker,
		agents:  copilot.Agents(),
		inputs:  make(map[string]string),
		busy:    make(map[string]bool),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Agents returns the agents in display order.
func (c *Controller) Agents() []copilot.Agent {
	agents := make([]copilot.Agent, len(c.agents))
	copy(agents, c.agents)
	return agents
}

// SetInput stores the text typed into an agent's input field.
func (c *Controller) SetInput(name, text string) error {
	if _, ok := c.agent(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs[name] = text
	return nil
}

// Input returns the current input text of an agent.
func (c *Controller) Input(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputs[name]
}

// Display returns the text in the shared display area.
func (c *Controller) Display() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// SetDisplay replaces the text in the shared display area.
func (c *Controller) SetDisplay(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.display = text
}

// Enabled reports whether an agent's control accepts a new invocation.
func (c *Controller) Enabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busy[name]
}

// Busy reports whether any agent has a call in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.busy {
		if b {
			return true
		}
	}
	return false
}

// Start validates the agent's input and, when valid, marks the control busy,
// shows the working placeholder and returns the Task to run.
//
// An invalid input sets the display to the agent's validation message and
// returns the *copilot.ValidationError; no task is created.
func (c *Controller) Start(ctx context.Context, name string) (Task, error) {
	agent, ok := c.agent(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy[name] {
		return nil, fmt.Errorf("%w: %s", ErrBusy, name)
	}

	input := c.inputs[name]
	if err := agent.Validate(input); err != nil {
		c.display = err.Error()
		return nil, err
	}

	c.busy[name] = true
	c.display = agent.WorkingMessage
	c.logger.Debug("agent started", "agent", name)

	return func() copilot.Outcome {
		return c.invoker.Invoke(ctx, agent, input)
	}, nil
}

// Finish writes the outcome to the display and re-enables the control.
func (c *Controller) Finish(name string, outcome copilot.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.display = outcome.Display()
	c.busy[name] = false
	c.logger.Debug("agent finished", "agent", name, "kind", outcome.Kind().String())
}

// Trigger starts the agent and runs its task on a new goroutine. done, if not
// nil, is called after the outcome has been displayed.
func (c *Controller) Trigger(ctx context.Context, name string, done func(copilot.Outcome)) error {
	task, err := c.Start(ctx, name)
	if err != nil {
		return err
	}

	go func() {
		outcome := task()
		c.Finish(name, outcome)
		if done != nil {
			done(outcome)
		}
	}()
	return nil
}

// Run starts the agent and waits for the outcome.
func (c *Controller) Run(ctx context.Context, name string) (copilot.Outcome, error) {
	task, err := c.Start(ctx, name)
	if err != nil {
		return copilot.Outcome{}, err
	}

	outcome := task()
	c.Finish(name, outcome)
	return outcome, nil
}

func (c *Controller) agent(name string) (copilot.Agent, bool) {
	for _, a := range c.agents {
		if a.Name == name {
			return a, true
		}
	}
	return copilot.Agent{}, false
}
