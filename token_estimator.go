package copilot

import (
	"math"
)

// imageTokenCost approximates the prompt tokens consumed by one attached image.
const imageTokenCost = 258

// TokenEstimator estimates prompt size for rate limiting.
type TokenEstimator interface {
	EstimateTokens(req *GenerateRequest) int
}

// SimpleTokenEstimator - fast character-based approximation
type SimpleTokenEstimator struct {
	SafetyMargin float64
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(req *GenerateRequest) int {
	if req == nil {
		return 0
	}

	tokens := len(req.Images) * imageTokenCost
	if req.Prompt == "" {
		return tokens
	}

	charCount := len([]rune(req.Prompt))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.SafetyMargin

	return tokens + int(math.Ceil(tokenEstimate)) + 3
}
