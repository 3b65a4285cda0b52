package copilot

// Model represents a model identifier as understood by the inference server.
type Model string

const (
	ModelLlama3  Model = "llama3:8b"   // Llama 3 8B
	ModelGemma3n Model = "gemma3n:e4b" // Gemma 3n E4B, multimodal

	ModelDefault Model = ModelLlama3
)

// NoResponseText is displayed when the server answers without a response field.
const NoResponseText = "No response from AI."

// GenerateRequest is a single non-streaming generation request.
// It is built fresh for every call and never reused.
type GenerateRequest struct {
	// Model to use for generation (if empty, uses manager's default)
	Model Model

	// Prompt is the full prompt text, instruction included
	Prompt string

	// Images holds base64-encoded image payloads (multimodal models only)
	Images []string
}

// WithModel returns a copy of the request with the specified model.
func (r *GenerateRequest) WithModel(model Model) *GenerateRequest {
	if r == nil {
		return &GenerateRequest{Model: model}
	}
	rX := *r
	rX.Model = model
	return &rX
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
