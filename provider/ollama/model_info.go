package ollama

import "github.com/mhpenta/copilot"

// Llama3Info describes Llama 3 8B as pulled into Ollama ("llama3:8b").
// Text only; it backs the Architect agent.
var Llama3Info = copilot.ModelInfo{
	Name:         string(copilot.ModelLlama3),
	DisplayName:  "Llama 3",
	Provider:     copilot.ProviderOllama,
	APIModelName: string(copilot.ModelLlama3),
}

// Gemma3nInfo describes Gemma 3n E4B ("gemma3n:e4b"), which accepts images.
var Gemma3nInfo = copilot.ModelInfo{
	Name:         string(copilot.ModelGemma3n),
	DisplayName:  "Gemma 3n",
	Provider:     copilot.ProviderOllama,
	APIModelName: string(copilot.ModelGemma3n),

	Capabilities: copilot.ModelCapabilities{
		SupportsImages: true,
		MaxInputImages: 1,
	},
}
