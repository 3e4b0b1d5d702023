package chat

import "errors"

var (
	// ErrEmptyMessage is returned when the question is blank
	ErrEmptyMessage = errors.New("empty message")

	// ErrProviderNotConfigured is returned when no LLM provider is available
	ErrProviderNotConfigured = errors.New("llm provider not configured")

	// ErrCompletionFailed wraps provider errors
	ErrCompletionFailed = errors.New("completion failed")
)
