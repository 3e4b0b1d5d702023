package llm

import (
	"context"
	"regexp"
	"strings"
)

// Provider defines the interface for chat completion backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a conversation and returns the model's reply
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Message is one turn of the conversation sent to the model
type Message struct {
	Role    string // system, user or assistant
	Content string
}

// CompletionRequest contains the input of a chat completion
type CompletionRequest struct {
	// Messages in conversation order; a leading system message carries the instructions
	Messages []Message

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// Temperature (0 = provider default)
	Temperature float32
}

// CompletionResponse contains the model's reply
type CompletionResponse struct {
	// Content is the reply text, trimmed
	Content string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation (0 = provider default)
	MaxTokens int

	// Temperature for sampling (0 = provider default)
	Temperature float32

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// splitSystem separates a leading system message from the conversation
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"]+`)

// ExtractURLs returns the distinct http(s) URLs found in text, in order of appearance
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, url := range matches {
		// Clean up trailing punctuation
		url = strings.TrimRight(url, ".,;:!?*")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}

	return unique
}
