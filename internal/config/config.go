// Package config loads the co-pilot configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// Backend names
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
)

// Config is the complete application configuration.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Capture CaptureConfig `mapstructure:"capture"`
	Log     LogConfig     `mapstructure:"log"`
}

// OllamaConfig configures the local inference server.
type OllamaConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// GeminiConfig configures the cloud backend.
type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CaptureConfig selects the display the Debugger captures.
type CaptureConfig struct {
	// Display index; -1 captures all displays
	Display int `mapstructure:"display"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Validate checks the configuration for values the program cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendOllama:
		u, err := url.Parse(c.Ollama.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("ollama.endpoint: invalid URL %q", c.Ollama.Endpoint))
		}
	case BackendGemini:
		if c.Gemini.Model == "" {
			errs = append(errs, errors.New("gemini.model: must not be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("backend: unknown backend %q (want %s or %s)", c.Backend, BackendOllama, BackendGemini))
	}

	if c.Ollama.Timeout < 0 {
		errs = append(errs, errors.New("ollama.timeout: must not be negative"))
	}
	if c.Gemini.Timeout < 0 {
		errs = append(errs, errors.New("gemini.timeout: must not be negative"))
	}
	if c.Capture.Display < -1 {
		errs = append(errs, fmt.Errorf("capture.display: %d is not a display index", c.Capture.Display))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
