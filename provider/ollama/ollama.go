// Package ollama provides a Generator backed by a local Ollama server's
// /api/generate endpoint, always called in non-streaming mode.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/copilot"
)

// DefaultEndpoint is the generate endpoint of a default local Ollama install.
const DefaultEndpoint = "http://localhost:11434/api/generate"

// maxErrorBody bounds how much of a failed response is read for the message.
const maxErrorBody = 4 << 10

// OllamaGenerator implements copilot.Generator over HTTP.
type OllamaGenerator struct {
	endpoint   string
	httpClient *http.Client
	models     []copilot.ModelInfo
}

// Ensure OllamaGenerator implements the interface.
var _ copilot.Generator = (*OllamaGenerator)(nil)

// Option configures an OllamaGenerator.
type Option func(*OllamaGenerator)

// WithEndpoint overrides the generate endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(g *OllamaGenerator) {
		if endpoint != "" {
			g.endpoint = endpoint
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(g *OllamaGenerator) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithTimeout bounds each request. Zero keeps the HTTP default (no timeout).
func WithTimeout(timeout time.Duration) Option {
	return func(g *OllamaGenerator) {
		g.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithModels replaces the served model list.
func WithModels(models ...copilot.ModelInfo) Option {
	return func(g *OllamaGenerator) {
		g.models = models
	}
}

// New creates a generator for the local Ollama server.
func New(opts ...Option) *OllamaGenerator {
	g := &OllamaGenerator{
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{},
		models:     []copilot.ModelInfo{Llama3Info, Gemma3nInfo},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Endpoint returns the configured generate URL.
func (g *OllamaGenerator) Endpoint() string {
	return g.endpoint
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Model           string  `json:"model"`
	CreatedAt       string  `json:"created_at"`
	Response        *string `json:"response"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	TotalDuration   int64   `json:"total_duration"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Generate issues one POST to the generate endpoint.
// Transport failures and non-2xx statuses are *copilot.CommunicationError;
// undecodable bodies are *copilot.UnexpectedError.
func (g *OllamaGenerator) Generate(ctx context.Context, req *copilot.GenerateRequest) (*copilot.GenerateResult, error) {
	if req == nil {
		return nil, &copilot.UnexpectedError{Err: errors.New("nil request")}
	}

	model := string(req.Model)
	if model == "" && len(g.models) > 0 {
		model = g.models[0].APIModelName
	}

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		Images: req.Images,
		Stream: false,
	})
	if err != nil {
		return nil, &copilot.UnexpectedError{Err: fmt.Errorf("encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, g.communicationError(model, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, g.communicationError(model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, g.communicationError(model, statusError(resp, g.endpoint))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.communicationError(model, fmt.Errorf("read response: %w", err))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, &copilot.UnexpectedError{Err: fmt.Errorf("decode response: %w", err)}
	}

	return parseResult(&parsed), nil
}

// Models returns the model definitions served by this generator.
// The first model is the default.
func (g *OllamaGenerator) Models() []copilot.ModelInfo {
	models := make([]copilot.ModelInfo, len(g.models))
	copy(models, g.models)
	return models
}

// Close releases idle connections.
func (g *OllamaGenerator) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

func (g *OllamaGenerator) communicationError(model string, err error) error {
	cErr := &copilot.CommunicationError{
		Server: copilot.ProviderOllama.DisplayName(),
		Model:  model,
		Err:    err,
	}
	for _, info := range g.models {
		if info.APIModelName == model || info.Name == model {
			cErr.ModelName = info.DisplayName
			break
		}
	}
	return cErr
}

// statusError describes a non-2xx response, including Ollama's error field
// when the body carries one.
func statusError(resp *http.Response, url string) error {
	msg := fmt.Sprintf("%s for url: %s", resp.Status, url)

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var apiErr errorResponse
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("%s: %s", msg, apiErr.Error)
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return fmt.Errorf("%s: %s", msg, text)
	}
	return errors.New(msg)
}

// parseResult converts the Ollama response to our result type.
func parseResult(resp *generateResponse) *copilot.GenerateResult {
	result := &copilot.GenerateResult{
		Model:      resp.Model,
		CreatedAt:  resp.CreatedAt,
		Done:       resp.Done,
		DoneReason: resp.DoneReason,
	}

	if resp.Response != nil {
		result.Text = *resp.Response
		result.HasResponse = true
	}

	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 || resp.TotalDuration > 0 {
		result.Usage = &copilot.UsageMetadata{
			PromptTokens:   resp.PromptEvalCount,
			ResponseTokens: resp.EvalCount,
			TotalTokens:    resp.PromptEvalCount + resp.EvalCount,
			TotalDuration:  time.Duration(resp.TotalDuration),
		}
	}

	return result
}
