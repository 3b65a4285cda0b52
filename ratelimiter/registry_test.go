package ratelimiter

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("non-existent")
	if err == nil {
		t.Error("expected error for non-existent model, got nil")
	}

	limiter := New(10, 10)
	modelName := "test-model"
	registry.Set(modelName, limiter)

	retrieved, err := registry.Get(modelName)
	if err != nil {
		t.Errorf("unexpected error getting model: %v", err)
	}
	if retrieved != limiter {
		t.Error("retrieved limiter does not match set limiter")
	}

	limiter2 := New(20, 20)
	registry.Set(modelName, limiter2)
	retrieved2, err := registry.Get(modelName)
	if err != nil {
		t.Errorf("unexpected error getting model: %v", err)
	}
	if retrieved2 != limiter2 {
		t.Error("retrieved limiter does not match overwritten limiter")
	}

	registry.Delete(modelName)
	if _, err := registry.Get(modelName); err == nil {
		t.Error("expected error after delete")
	}
}
