package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhpenta/copilot"
	"github.com/mhpenta/copilot/capture"
	"github.com/mhpenta/copilot/internal/config"
	"github.com/mhpenta/copilot/provider/gemini"
	"github.com/mhpenta/copilot/provider/ollama"
)

// app is everything one command run needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	manager *copilot.Manager
	runner  *copilot.Runner
	closers []io.Closer
}

// newApp loads the configuration and wires logger, manager and runner.
// In TUI mode logs never go to the terminal.
func newApp(cmd *cobra.Command, opts *rootOptions, tui bool) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg}

	out, closer, err := logOutput(cfg.Log, tui, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.logger, err = newLogger(cfg.Log, out)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.manager, err = newManager(cmd.Context(), cfg, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append([]io.Closer{a.manager}, a.closers...)

	a.runner = copilot.NewRunner(a.manager,
		copilot.WithCapturer(capture.Screen{Display: cfg.Capture.Display}),
		copilot.WithRunnerLogger(a.logger),
	)

	a.logger.Debug("co-pilot ready",
		"backend", cfg.Backend,
		"endpoint", cfg.Ollama.Endpoint,
		"display", cfg.Capture.Display,
	)
	return a, nil
}

// Close releases the manager and the log file, in that order.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// newManager builds the inference client for the configured backend. With
// the Gemini backend every agent model is served by the configured Gemini
// model.
func newManager(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*copilot.Manager, error) {
	switch cfg.Backend {
	case config.BackendOllama:
		gen := ollama.New(
			ollama.WithEndpoint(cfg.Ollama.Endpoint),
			ollama.WithTimeout(cfg.Ollama.Timeout),
		)
		return copilot.NewManager(gen, copilot.WithLogger(logger)), nil

	case config.BackendGemini:
		gen, err := gemini.New(ctx, &gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Timeout: cfg.Gemini.Timeout,
		})
		if err != nil {
			return nil, err
		}

		target := copilot.Model(cfg.Gemini.Model)
		m := copilot.NewManager(gen,
			copilot.WithLogger(logger),
			copilot.WithDefaultModel(target),
		)
		for _, model := range []copilot.Model{copilot.ModelLlama3, copilot.ModelGemma3n} {
			if err := m.Alias(model, target); err != nil {
				m.Close()
				return nil, fmt.Errorf("gemini.model: %w", err)
			}
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// logOutput picks the log destination: the configured file, else stderr for
// headless commands and nowhere for the TUI.
func logOutput(cfg config.LogConfig, tui bool, stderr io.Writer) (io.Writer, io.Closer, error) {
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, f, nil
	}
	if tui {
		return io.Discard, nil, nil
	}
	return stderr, nil, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler), nil
}
