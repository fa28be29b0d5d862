package llm

import (
	"context"
	"errors"
	"time"
)

// Client is a chat completion backend.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config configures an LLM client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}

// LLM errors.
var (
	ErrMissingAPIKey       = errors.New("API key is required")
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
	ErrEmptyCompletion     = errors.New("no completion returned")
)
