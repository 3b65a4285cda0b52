package copilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/copilot/ratelimiter"
)

var (
	// ErrModelNotRegistered is returned when a model has no registered provider.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrProviderNotConfigured is returned when a provider lacks required config.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// ModelMapping maps a model identifier to its provider and actual model name.
type ModelMapping struct {
	Provider        Provider
	ActualModelName string
}

// Manager is the inference client shared by all agents. It implements
// Generator, routing requests to the provider registered for the model.
type Manager struct {
	// Model to provider mapping
	modelMappings map[Model]ModelMapping

	// Provider instances
	providers map[Provider]Generator

	// Default model to use when the request names none
	defaultModel Model

	// Rate limiting (per model)
	rateLimiters ratelimiter.Registry

	// Model info (per model)
	modelInfo map[Model]*ModelInfo

	logger *slog.Logger

	tokenEstimator TokenEstimator

	mu sync.RWMutex
}

// Ensure Manager implements the interface.
var _ Generator = (*Manager)(nil)

// New creates a new, empty Manager.
func New() *Manager {
	return &Manager{
		logger:         slog.Default(),
		modelMappings:  make(map[Model]ModelMapping),
		providers:      make(map[Provider]Generator),
		rateLimiters:   ratelimiter.NewRegistry(),
		modelInfo:      make(map[Model]*ModelInfo),
		tokenEstimator: NewSimpleTokenEstimator(),
		defaultModel:   ModelDefault,
	}
}

// AddProvider registers a provider and every model it serves.
func (m *Manager) AddProvider(gen Generator) *Manager {
	models := gen.Models()
	for i := range models {
		info := models[i]

		m.mu.Lock()
		m.providers[info.Provider] = gen
		m.mu.Unlock()

		m.RegisterModel(Model(info.Name),
			ModelMapping{
				Provider:        info.Provider,
				ActualModelName: info.APIModelName,
			},
			&info)
	}
	return m
}

// RegisterModel registers a model with full info (including rate limits).
// Uses the default in-memory rate limiter. Use SetRateLimiter to override.
func (m *Manager) RegisterModel(model Model, mapping ModelMapping, info *ModelInfo) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modelMappings[model] = mapping
	m.modelInfo[model] = info

	if info != nil && (info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0) {
		m.rateLimiters.Set(string(model), ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	} else {
		m.rateLimiters.Delete(string(model))
	}

	return m
}

// Alias makes model resolve to whatever target is registered as. The alias
// keeps its own identifier in logs and error hints.
func (m *Manager) Alias(model, target Model) error {
	m.mu.RLock()
	mapping, ok := m.modelMappings[target]
	info := m.modelInfo[target]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotRegistered, target)
	}

	var aliasInfo *ModelInfo
	if info != nil {
		infoCopy := *info
		infoCopy.Name = string(model)
		aliasInfo = &infoCopy
	}

	m.RegisterModel(model, mapping, aliasInfo)

	// Aliases draw on the target's quota, not a copy of it.
	if limiter, err := m.rateLimiters.Get(string(target)); err == nil {
		m.rateLimiters.Set(string(model), limiter)
	}
	return nil
}

// SetRateLimiter sets a custom rate limiter for a model.
func (m *Manager) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Manager {
	m.rateLimiters.Set(string(model), limiter)
	return m
}

// SetDefaultModel sets the default model used when a request names none.
func (m *Manager) SetDefaultModel(model Model) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.defaultModel = model
	return m
}

// SetLogger sets a structured logger for the manager.
func (m *Manager) SetLogger(logger *slog.Logger) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger = logger
	return m
}

// Generate sends one non-streaming request and returns the result. Errors
// are always a *CommunicationError or an *UnexpectedError. No retries.
func (m *Manager) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if req == nil {
		req = &GenerateRequest{}
	}

	model := m.resolveModel(req)
	info, _ := m.GetModelInfo(model)
	logger := m.getLogger()
	start := time.Now()

	logger.Debug("starting generation",
		"model", string(model),
		"prompt_length", len(req.Prompt),
		"image_count", len(req.Images),
	)

	if err := ValidatePrompt(req.Prompt); err != nil {
		return nil, &UnexpectedError{Err: err}
	}
	if err := ValidateImages(req.Images, info); err != nil {
		return nil, &UnexpectedError{Err: err}
	}

	if err := m.checkRateLimit(model, req); err != nil {
		logger.Warn("rate limit hit",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, classify(err, model, info)
	}

	gen, actualReq, err := m.getGeneratorForRequest(req)
	if err != nil {
		logger.Error("failed to get generator",
			"model", string(model),
			"error", err.Error(),
		)
		return nil, classify(err, model, info)
	}

	result, err := gen.Generate(ctx, actualReq)
	duration := time.Since(start)

	if err != nil {
		err = classify(err, model, info)
		logger.Error("generation failed",
			"model", string(model),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}
	if result == nil {
		result = &GenerateResult{}
	}

	if !result.HasResponse {
		result.Text = NoResponseText
	}

	logAttrs := []any{
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
		"response_length", len(result.Text),
		"has_response", result.HasResponse,
	}
	if result.Usage != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.Usage.PromptTokens,
			"response_tokens", result.Usage.ResponseTokens,
			"total_tokens", result.Usage.TotalTokens,
		)
	}
	logger.Info("generation completed", logAttrs...)

	return result, nil
}

// Models returns all registered model definitions.
func (m *Manager) Models() []ModelInfo {
	return m.ListModelsInfo()
}

// Close releases all provider resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for provider, gen := range m.providers {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", provider, err))
		}
	}
	m.providers = make(map[Provider]Generator)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ListModels returns all registered models.
func (m *Manager) ListModels() []Model {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]Model, 0, len(m.modelMappings))
	for model := range m.modelMappings {
		models = append(models, model)
	}
	return models
}

// GetModelProvider returns the provider for a model.
func (m *Manager) GetModelProvider(model Model) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mapping, ok := m.modelMappings[model]
	if !ok {
		return "", false
	}
	return mapping.Provider, true
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok && info != nil
}

// ListModelsInfo returns all registered models with their info.
func (m *Manager) ListModelsInfo() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ModelInfo, 0, len(m.modelInfo))
	for _, info := range m.modelInfo {
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos
}

// checkRateLimit consumes capacity for the request or fails immediately.
func (m *Manager) checkRateLimit(model Model, req *GenerateRequest) error {
	const (
		tokenBuffer = 100
	)

	limiter, err := m.rateLimiters.Get(string(model))
	if err != nil {
		// no limiter registered for this model
		return nil
	}

	estimatedTokens := m.tokenEstimator.EstimateTokens(req) + tokenBuffer

	if !limiter.TryConsume(estimatedTokens) {
		limitType := ratelimiter.LimitTokens
		if r, ok := limiter.(ratelimiter.RefusalReporter); ok {
			if refused := r.Refusal(estimatedTokens); refused != "" {
				limitType = refused
			}
		}
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  limitType,
			Model:      string(model),
		}
	}

	return nil
}

func (m *Manager) getLogger() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// resolveModel determines the actual model to use.
func (m *Manager) resolveModel(req *GenerateRequest) Model {
	if req != nil && req.Model != "" {
		return req.Model
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultModel
}

// getGeneratorForRequest returns the generator and a request rewritten to
// the provider's model name.
func (m *Manager) getGeneratorForRequest(req *GenerateRequest) (Generator, *GenerateRequest, error) {
	model := m.resolveModel(req)

	m.mu.RLock()
	mapping, ok := m.modelMappings[model]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	gen, err := m.getProvider(mapping.Provider)
	if err != nil {
		return nil, nil, err
	}

	actual := mapping.ActualModelName
	if actual == "" {
		actual = string(model)
	}

	return gen, req.WithModel(Model(actual)), nil
}

// getProvider returns the provider instance for the given provider type.
func (m *Manager) getProvider(provider Provider) (Generator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen, ok := m.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return gen, nil
}
