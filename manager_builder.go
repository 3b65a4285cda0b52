package copilot

import (
	"log/slog"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDefaultModel sets the default model used when a request names none.
func WithDefaultModel(model Model) ManagerOption {
	return func(m *Manager) {
		m.defaultModel = model
	}
}

// WithTokenEstimator replaces the estimator used for rate limiting.
func WithTokenEstimator(estimator TokenEstimator) ManagerOption {
	return func(m *Manager) {
		m.tokenEstimator = estimator
	}
}

// NewManager creates a Manager serving every model of defaultProvider.
//
// Example:
//
//	manager := copilot.NewManager(ollama.New())
//	defer manager.Close()
//
// With options:
//
//	manager := copilot.NewManager(ollama.New(ollama.WithEndpoint(endpoint)),
//	    copilot.WithLogger(slog.Default()),
//	)
func NewManager(defaultProvider Generator, opts ...ManagerOption) *Manager {
	m := New()
	m.AddProvider(defaultProvider)

	for _, opt := range opts {
		opt(m)
	}

	return m
}
