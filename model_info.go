package copilot

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderGemini Provider = "gemini"
)

// DisplayName returns the human name of the backend used in error hints.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOllama:
		return "Ollama"
	case ProviderGemini:
		return "Gemini"
	default:
		return string(p)
	}
}

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	SupportsImages bool

	// MaxInputImages is the max images per request (0 = no images)
	MaxInputImages int
}

// RateLimits defines rate limiting parameters for a model.
// Zero values mean unlimited.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "llama3:8b")
	DisplayName  string   // Human name used in hints (e.g., "Llama 3")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name

	Capabilities ModelCapabilities

	RateLimits RateLimits
}
