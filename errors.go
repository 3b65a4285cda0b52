package copilot

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError is returned when required user input is missing.
// The request is never issued.
type ValidationError struct {
	Agent   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CommunicationError is returned when the inference server cannot be reached
// or answers with a non-2xx status.
type CommunicationError struct {
	// Server is the human name of the backend (e.g. "Ollama").
	Server string

	// Model is the model identifier the request was sent for.
	Model string

	// ModelName is the human name of the expected model (e.g. "Llama 3").
	ModelName string

	Err error
}

func (e *CommunicationError) Error() string {
	server := e.Server
	if server == "" {
		server = "the inference server"
	}
	name := e.ModelName
	if name == "" {
		name = e.Model
	}
	hint := name
	if e.Model != "" && e.Model != name {
		hint = fmt.Sprintf("%s (%s)", name, e.Model)
	}
	return fmt.Sprintf("Error communicating with %s: %v. Is your %s server running with %s?",
		server, e.Err, server, hint)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// UnexpectedError wraps any failure that is neither a validation nor a
// communication problem: malformed responses, capture failures and the like.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("An unexpected error occurred: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when a local rate limit is hit.
type RateLimitError struct {
	RetryAfter time.Duration
	LimitType  string
	Model      string
	Err        error // Underlying error from the provider
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsCommunicationError checks if an error is a CommunicationError.
func IsCommunicationError(err error) bool {
	var cErr *CommunicationError
	return errors.As(err, &cErr)
}

// IsUnexpectedError checks if an error is an UnexpectedError.
func IsUnexpectedError(err error) bool {
	var uErr *UnexpectedError
	return errors.As(err, &uErr)
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// classify makes sure err belongs to the error taxonomy. Validation and
// communication errors pass through; everything else becomes unexpected.
func classify(err error, model Model, info *ModelInfo) error {
	if err == nil {
		return nil
	}

	var cErr *CommunicationError
	if errors.As(err, &cErr) {
		if cErr.Model == "" {
			cErr.Model = string(model)
		}
		if cErr.ModelName == "" && info != nil {
			cErr.ModelName = info.DisplayName
		}
		return err
	}

	if IsValidationError(err) || IsUnexpectedError(err) {
		return err
	}

	if IsRateLimitError(err) {
		cErr := &CommunicationError{Model: string(model), Err: err}
		if info != nil {
			cErr.ModelName = info.DisplayName
			cErr.Server = info.Provider.DisplayName()
		}
		return cErr
	}

	return &UnexpectedError{Err: err}
}
