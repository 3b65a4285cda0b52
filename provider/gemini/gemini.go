// Package gemini provides a Generator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// It serves as a cloud backend for machines without a local inference
// server; the agents' model identifiers are aliased onto a Gemini model.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/copilot"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	// APIModelFlash is the actual API name for Gemini 2.5 Flash
	APIModelFlash = "gemini-2.5-flash"

	// APIModelFlashLite is the actual API name for Gemini 2.5 Flash-Lite
	APIModelFlashLite = "gemini-2.5-flash-lite"
)

// imageMIMEType is the MIME type of every image the agents send.
const imageMIMEType = "image/png"

// contentGenerator is the slice of the genai client this provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements copilot.Generator using Google's Gemini API.
type GeminiGenerator struct {
	models contentGenerator
}

// Ensure GeminiGenerator implements the interface.
var _ copilot.Generator = (*GeminiGenerator)(nil)

// Config configures the Gemini client.
type Config struct {
	// APIKey for authentication. If empty, the SDK reads GOOGLE_API_KEY or
	// GEMINI_API_KEY from the environment.
	APIKey string

	// Timeout bounds each HTTP request. Zero keeps the SDK default.
	Timeout time.Duration
}

// New creates a new GeminiGenerator.
func New(ctx context.Context, config *Config) (*GeminiGenerator, error) {
	if config == nil {
		config = &Config{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  config.APIKey,
	}
	if config.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		models: client.Models,
	}, nil
}

// Generate sends the prompt, plus any images as inline PNG parts.
func (g *GeminiGenerator) Generate(ctx context.Context, req *copilot.GenerateRequest) (*copilot.GenerateResult, error) {
	if req == nil {
		return nil, &copilot.UnexpectedError{Err: errors.New("nil request")}
	}
	if err := copilot.ValidatePrompt(req.Prompt); err != nil {
		return nil, &copilot.UnexpectedError{Err: err}
	}

	modelName := g.resolveModel(req)

	parts, err := buildParts(req)
	if err != nil {
		return nil, &copilot.UnexpectedError{Err: err}
	}

	contents := []*genai.Content{
		{Role: "user", Parts: parts},
	}

	result, err := g.models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return nil, classifyError(err, modelName)
	}

	return parseResult(result), nil
}

// Models returns the model definitions supported by this provider.
// The first model (Flash) is the default.
func (g *GeminiGenerator) Models() []copilot.ModelInfo {
	return []copilot.ModelInfo{
		FlashInfo,
		FlashLiteInfo,
	}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (g *GeminiGenerator) resolveModel(req *copilot.GenerateRequest) string {
	if req != nil && req.Model != "" {
		return string(req.Model)
	}
	models := g.Models()
	if len(models) == 0 {
		return APIModelFlash
	}
	return models[0].APIModelName
}

// buildParts puts the images first, followed by the prompt text.
func buildParts(req *copilot.GenerateRequest) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for i, b64 := range req.Images {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("image %d: invalid base64: %w", i, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     data,
				MIMEType: imageMIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})
	return parts, nil
}

// parseResult converts Gemini response to our result type. Thought parts are
// dropped; a response without text parts has no response.
func parseResult(result *genai.GenerateContentResponse) *copilot.GenerateResult {
	genResult := &copilot.GenerateResult{}
	if result == nil {
		return genResult
	}

	genResult.Model = result.ModelVersion

	var text strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			text.WriteString(part.Text)
			genResult.HasResponse = true
		}
		if candidate.FinishReason != "" {
			genResult.Done = true
			genResult.DoneReason = string(candidate.FinishReason)
		}
		// Only the first candidate with content is used.
		if genResult.HasResponse {
			break
		}
	}
	genResult.Text = text.String()

	if result.UsageMetadata != nil {
		genResult.Usage = &copilot.UsageMetadata{
			PromptTokens:   int(result.UsageMetadata.PromptTokenCount),
			ResponseTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:    int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return genResult
}

// classifyError maps Gemini failures onto the error taxonomy: API rejections
// and transport failures are communication errors, 429 additionally carries
// a RateLimitError.
func classifyError(err error, model string) error {
	cErr := &copilot.CommunicationError{
		Server: copilot.ProviderGemini.DisplayName(),
		Model:  model,
		Err:    err,
	}
	for _, info := range []copilot.ModelInfo{FlashInfo, FlashLiteInfo} {
		if info.APIModelName == model {
			cErr.ModelName = info.DisplayName
		}
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return cErr
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED" {
		cErr.Err = &copilot.RateLimitError{
			RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
			LimitType:  "requests",
			Model:      model,
			Err:        err,
		}
	}

	return cErr
}
