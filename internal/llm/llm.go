package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	defaultGroqModel     = "llama-3.1-8b-instant"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.1"

	defaultMaxTokens   = 1024
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second

	// Rate limiting defaults (conservative for free-tier quotas)
	defaultRateLimit = 2.0 // requests per second
	defaultBurst     = 5   // Allow bursts of up to 5 requests
)

var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyResponse indicates the API returned no usable completion
	ErrEmptyResponse = errors.New("empty response from API")
)

// Client generates text completions.
//
// Implementations are safe for concurrent use; the department fan-out
// issues requests from multiple goroutines against one shared client.
type Client interface {
	// Complete sends the prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)

	// Close releases client resources.
	Close() error
}

// Config holds configuration for an LLM client.
type Config struct {
	// Provider selects the backend: "groq" (default), "openai", or "ollama"
	Provider string

	// Model overrides the provider's default model
	Model string

	// BaseURL overrides the provider's default API endpoint
	BaseURL string

	// APIKey authenticates hosted providers (unused for ollama)
	APIKey string `json:"-"` // Never serialize API keys

	// Temperature controls sampling randomness (0 for deterministic output)
	Temperature float64

	// MaxTokens bounds the completion length
	MaxTokens int

	// Timeout bounds each HTTP request
	Timeout time.Duration

	// RequestsPerSecond caps the client-side request rate
	RequestsPerSecond float64

	// MaxRetries bounds retry attempts for transient failures
	MaxRetries int
}

// Validate validates the configuration.
func (c Config) Validate() error {
	switch c.Provider {
	case "", "groq", "openai", "ollama":
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in [0, 2], got %v", ErrInvalidConfig, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// NewClient creates an LLM client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "", "groq":
		return newOpenAIClient(cfg, defaultGroqBaseURL, defaultGroqModel)
	case "openai":
		return newOpenAIClient(cfg, defaultOpenAIBaseURL, defaultOpenAIModel)
	case "ollama":
		return newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var re *retryableError
	return errors.As(err, &re)
}
