package copilot

import (
	"context"
)

// MockGenerator is a mock implementation of Generator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
	ModelsFunc   func() []ModelInfo
	CloseFunc    func() error
}

func (m *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{HasResponse: true}, nil
}

func (m *MockGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
