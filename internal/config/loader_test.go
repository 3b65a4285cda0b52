package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "copilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendOllama, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/api/generate", cfg.Ollama.Endpoint)
	assert.Equal(t, time.Duration(0), cfg.Ollama.Timeout)
	assert.Equal(t, 0, cfg.Capture.Display)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend: ollama
ollama:
  endpoint: http://gpu-box:11434/api/generate
  timeout: 2m
capture:
  display: -1
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434/api/generate", cfg.Ollama.Endpoint)
	assert.Equal(t, 2*time.Minute, cfg.Ollama.Timeout)
	assert.Equal(t, -1, cfg.Capture.Display)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "backend: ollama\n")
	t.Setenv("COPILOT_BACKEND", "gemini")
	t.Setenv("COPILOT_GEMINI_MODEL", "gemini-2.5-flash-lite")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Gemini.Model)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown backend", content: "backend: openai\n", want: "unknown backend"},
		{name: "bad endpoint", content: "ollama:\n  endpoint: not a url\n", want: "ollama.endpoint"},
		{name: "negative timeout", content: "ollama:\n  timeout: -1s\n", want: "ollama.timeout"},
		{name: "bad display", content: "capture:\n  display: -3\n", want: "capture.display"},
		{name: "bad level", content: "log:\n  level: loud\n", want: "log.level"},
		{name: "bad format", content: "log:\n  format: xml\n", want: "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
