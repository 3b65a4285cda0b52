package gemini

import "github.com/mhpenta/copilot"

// FlashInfo is the model info for Gemini 2.5 Flash, the default cloud model.
var FlashInfo = copilot.ModelInfo{
	Name:         APIModelFlash,
	DisplayName:  "Gemini 2.5 Flash",
	Provider:     copilot.ProviderGemini,
	APIModelName: APIModelFlash,

	Capabilities: copilot.ModelCapabilities{
		SupportsImages: true,
		MaxInputImages: 1,
	},

	// Free tier limits.
	RateLimits: copilot.RateLimits{
		TokensPerMinute:   250000,
		RequestsPerMinute: 10,
	},
}

// FlashLiteInfo is the model info for Gemini 2.5 Flash-Lite.
var FlashLiteInfo = copilot.ModelInfo{
	Name:         APIModelFlashLite,
	DisplayName:  "Gemini 2.5 Flash-Lite",
	Provider:     copilot.ProviderGemini,
	APIModelName: APIModelFlashLite,

	Capabilities: copilot.ModelCapabilities{
		SupportsImages: true,
		MaxInputImages: 1,
	},

	RateLimits: copilot.RateLimits{
		TokensPerMinute:   250000,
		RequestsPerMinute: 15,
	},
}
