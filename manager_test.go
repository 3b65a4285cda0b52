package copilot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mhpenta/copilot/ratelimiter"
)

func testModels(limits RateLimits) func() []ModelInfo {
	return func() []ModelInfo {
		return []ModelInfo{
			{
				Name:         "test-model",
				DisplayName:  "Test Model",
				Provider:     "test-provider",
				APIModelName: "test-model-api",
				Capabilities: ModelCapabilities{SupportsImages: true, MaxInputImages: 1},
				RateLimits:   limits,
			},
			{
				Name:         "text-model",
				DisplayName:  "Text Model",
				Provider:     "test-provider",
				APIModelName: "text-model-api",
			},
		}
	}
}

func TestManager_Generate_RateLimit(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{
			TokensPerMinute:   100, // Small limit for testing
			RequestsPerMinute: 10,
		}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			return &GenerateResult{Text: "ok", HasResponse: true}, nil
		},
	}

	manager := NewManager(mockGen)
	defer manager.Close()

	ctx := context.Background()
	// 11 chars -> 7 tokens + 100 buffer = 107 > 100
	req := &GenerateRequest{Model: "test-model", Prompt: "test prompt"}

	_, err := manager.Generate(ctx, req)
	if err == nil {
		t.Fatal("expected rate limit error, got nil")
	}
	if !IsCommunicationError(err) {
		t.Errorf("expected CommunicationError, got %T: %v", err, err)
	}
	if !IsRateLimitError(err) {
		t.Errorf("expected wrapped RateLimitError, got %v", err)
	}

	// Now increase limit to allow it
	manager.SetRateLimiter("test-model", ratelimiter.New(200, 10))

	result, err := manager.Generate(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "ok" {
		t.Errorf("Text = %q, want %q", result.Text, "ok")
	}
}

func TestManager_Generate_TokenEstimation(t *testing.T) {
	mockGen := &MockGenerator{ModelsFunc: testModels(RateLimits{})}
	manager := NewManager(mockGen)

	// Capacity 200, buffer 100: about 300 characters of prompt fit.
	manager.SetRateLimiter("test-model", ratelimiter.New(200, 100))

	ctx := context.Background()

	// "hello" -> 5 tokens + 100 = 105. Should pass.
	_, err := manager.Generate(ctx, &GenerateRequest{Model: "test-model", Prompt: "hello"})
	if err != nil {
		t.Errorf("small prompt failed: %v", err)
	}

	manager.SetRateLimiter("test-model", ratelimiter.New(200, 100))

	// 500 chars -> 153 tokens + 100 = 253. Should fail.
	_, err = manager.Generate(ctx, &GenerateRequest{Model: "test-model", Prompt: strings.Repeat("a", 500)})
	if err == nil {
		t.Error("large prompt should have failed rate limit")
	} else if !IsRateLimitError(err) {
		t.Errorf("expected RateLimitError, got %v", err)
	}
}

func TestManager_Generate_NoLimiterForUnlimitedModels(t *testing.T) {
	manager := NewManager(&MockGenerator{ModelsFunc: testModels(RateLimits{})})

	for i := 0; i < 50; i++ {
		if _, err := manager.Generate(context.Background(), &GenerateRequest{
			Model:  "text-model",
			Prompt: strings.Repeat("a", 4000),
		}); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, err)
		}
	}
}

func TestManager_Generate_RewritesModelName(t *testing.T) {
	var got *GenerateRequest
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			got = req
			return &GenerateResult{Text: "done", HasResponse: true}, nil
		},
	}
	manager := NewManager(mockGen)

	req := &GenerateRequest{Model: "test-model", Prompt: "p"}
	if _, err := manager.Generate(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got == nil {
		t.Fatal("provider was not called")
	}
	if got.Model != "test-model-api" {
		t.Errorf("provider saw model %q, want %q", got.Model, "test-model-api")
	}
	if req.Model != "test-model" {
		t.Errorf("caller's request was modified: %q", req.Model)
	}
}

func TestManager_Generate_DefaultModel(t *testing.T) {
	var got Model
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			got = req.Model
			return &GenerateResult{HasResponse: true}, nil
		},
	}
	manager := NewManager(mockGen, WithDefaultModel("text-model"))

	if _, err := manager.Generate(context.Background(), &GenerateRequest{Prompt: "p"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "text-model-api" {
		t.Errorf("provider saw model %q, want %q", got, "text-model-api")
	}
}

func TestManager_Generate_NoResponsePlaceholder(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			return &GenerateResult{HasResponse: false}, nil
		},
	}
	manager := NewManager(mockGen)

	result, err := manager.Generate(context.Background(), &GenerateRequest{Model: "text-model", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != NoResponseText {
		t.Errorf("Text = %q, want %q", result.Text, NoResponseText)
	}
}

func TestManager_Generate_EmptyResponseIsKept(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			return &GenerateResult{Text: "", HasResponse: true}, nil
		},
	}
	manager := NewManager(mockGen)

	result, err := manager.Generate(context.Background(), &GenerateRequest{Model: "text-model", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Text = %q, want empty", result.Text)
	}
}

func TestManager_Generate_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCheck func(error) bool
		wantText  string
	}{
		{
			name:      "plain error becomes unexpected",
			err:       errors.New("boom"),
			wantCheck: IsUnexpectedError,
			wantText:  "An unexpected error occurred: boom",
		},
		{
			name:      "communication error gets model name",
			err:       &CommunicationError{Server: "Ollama", Err: errors.New("connection refused")},
			wantCheck: IsCommunicationError,
			wantText:  "Error communicating with Ollama: connection refused. Is your Ollama server running with Text Model (text-model)?",
		},
		{
			name:      "unexpected error passes through",
			err:       &UnexpectedError{Err: errors.New("bad json")},
			wantCheck: IsUnexpectedError,
			wantText:  "An unexpected error occurred: bad json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockGen := &MockGenerator{
				ModelsFunc: testModels(RateLimits{}),
				GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
					return nil, tt.err
				},
			}
			manager := NewManager(mockGen)

			_, err := manager.Generate(context.Background(), &GenerateRequest{Model: "text-model", Prompt: "p"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantCheck(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if err.Error() != tt.wantText {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestManager_Generate_InvalidRequests(t *testing.T) {
	tests := []struct {
		name    string
		req     *GenerateRequest
		wantErr error
	}{
		{
			name:    "empty prompt",
			req:     &GenerateRequest{Model: "text-model"},
			wantErr: ErrEmptyPrompt,
		},
		{
			name:    "unregistered model",
			req:     &GenerateRequest{Model: "missing", Prompt: "p"},
			wantErr: ErrModelNotRegistered,
		},
		{
			name:    "images for text model",
			req:     &GenerateRequest{Model: "text-model", Prompt: "p", Images: []string{"aGVsbG8="}},
			wantErr: ErrImagesNotSupported,
		},
		{
			name:    "invalid image",
			req:     &GenerateRequest{Model: "test-model", Prompt: "p", Images: []string{"%%%"}},
			wantErr: ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mockGen := &MockGenerator{
				ModelsFunc: testModels(RateLimits{}),
				GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
					called = true
					return &GenerateResult{HasResponse: true}, nil
				},
			}
			manager := NewManager(mockGen)

			_, err := manager.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !IsUnexpectedError(err) {
				t.Errorf("expected UnexpectedError, got %T", err)
			}
			if called {
				t.Error("provider should not be called")
			}
		})
	}
}

func TestManager_Alias(t *testing.T) {
	var got Model
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			got = req.Model
			return &GenerateResult{HasResponse: true}, nil
		},
	}
	manager := NewManager(mockGen)

	if err := manager.Alias(ModelLlama3, "test-model"); err != nil {
		t.Fatalf("Alias() error = %v", err)
	}

	if _, err := manager.Generate(context.Background(), &GenerateRequest{Model: ModelLlama3, Prompt: "p"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "test-model-api" {
		t.Errorf("provider saw model %q, want %q", got, "test-model-api")
	}

	info, ok := manager.GetModelInfo(ModelLlama3)
	if !ok {
		t.Fatal("alias has no model info")
	}
	if info.Name != string(ModelLlama3) {
		t.Errorf("alias info name = %q, want %q", info.Name, ModelLlama3)
	}
	if provider, _ := manager.GetModelProvider(ModelLlama3); provider != "test-provider" {
		t.Errorf("alias provider = %q", provider)
	}

	if err := manager.Alias(ModelGemma3n, "missing"); !errors.Is(err, ErrModelNotRegistered) {
		t.Errorf("Alias() to missing target error = %v, want ErrModelNotRegistered", err)
	}
}

func TestManager_Alias_SharesTargetQuota(t *testing.T) {
	calls := 0
	mockGen := &MockGenerator{
		ModelsFunc: testModels(RateLimits{
			TokensPerMinute:   100000,
			RequestsPerMinute: 1,
		}),
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
			calls++
			return &GenerateResult{HasResponse: true}, nil
		},
	}
	manager := NewManager(mockGen)

	for _, alias := range []Model{ModelLlama3, ModelGemma3n} {
		if err := manager.Alias(alias, "test-model"); err != nil {
			t.Fatalf("Alias(%s) error = %v", alias, err)
		}
	}

	admitted := 0
	for _, model := range []Model{ModelLlama3, ModelGemma3n, "test-model"} {
		_, err := manager.Generate(context.Background(), &GenerateRequest{Model: model, Prompt: "p"})
		switch {
		case err == nil:
			admitted++
		case !IsRateLimitError(err):
			t.Errorf("%s: expected RateLimitError, got %v", model, err)
		}
	}

	if admitted != 1 {
		t.Errorf("admitted %d requests against a 1 RPM model, want 1", admitted)
	}
	if calls != 1 {
		t.Errorf("provider called %d times, want 1", calls)
	}
}

func TestManager_Generate_RateLimitType(t *testing.T) {
	tests := []struct {
		name   string
		limits RateLimits
		prompt string
		want   string
	}{
		{
			name:   "requests exhausted",
			limits: RateLimits{TokensPerMinute: 100000, RequestsPerMinute: 1},
			prompt: "p",
			want:   "requests",
		},
		{
			name:   "tokens exhausted",
			limits: RateLimits{TokensPerMinute: 250, RequestsPerMinute: 100},
			prompt: strings.Repeat("a", 200), // 63 tokens + 100 buffer, fits once
			want:   "tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(&MockGenerator{ModelsFunc: testModels(tt.limits)})
			req := &GenerateRequest{Model: "test-model", Prompt: tt.prompt}

			if _, err := manager.Generate(context.Background(), req); err != nil {
				t.Fatalf("first request: unexpected error: %v", err)
			}

			_, err := manager.Generate(context.Background(), req)
			var rlErr *RateLimitError
			if !errors.As(err, &rlErr) {
				t.Fatalf("expected RateLimitError, got %v", err)
			}
			if rlErr.LimitType != tt.want {
				t.Errorf("LimitType = %q, want %q", rlErr.LimitType, tt.want)
			}
			if !strings.Contains(err.Error(), tt.want+" limit") {
				t.Errorf("error text %q does not name the %s limit", err.Error(), tt.want)
			}
		})
	}
}

func TestManager_Close(t *testing.T) {
	closed := 0
	manager := NewManager(&MockGenerator{
		ModelsFunc: testModels(RateLimits{}),
		CloseFunc: func() error {
			closed++
			return errors.New("close failed")
		},
	})

	err := manager.Close()
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("Close() error = %v, want close failure", err)
	}
	if closed != 1 {
		t.Errorf("provider closed %d times, want 1", closed)
	}

	// providers are released after Close
	if err := manager.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestManager_ListModels(t *testing.T) {
	manager := NewManager(&MockGenerator{ModelsFunc: testModels(RateLimits{})})

	if n := len(manager.ListModels()); n != 2 {
		t.Errorf("ListModels() returned %d models, want 2", n)
	}
	if n := len(manager.Models()); n != 2 {
		t.Errorf("Models() returned %d models, want 2", n)
	}
}
