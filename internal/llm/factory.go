package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/finassist/internal/common"
	"github.com/Veraticus/finassist/internal/service"
)

// NewClient creates a client for cfg.Provider wrapped with rate limiting and
// retries.
func NewClient(cfg Config) (*ResilientClient, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewResilientClient(client, cfg), nil
}

// ResilientClient retries transient failures of an underlying Client and
// keeps it under a requests-per-minute budget.
type ResilientClient struct {
	client  Client
	limiter *rateLimiter
	retry   service.RetryOptions
}

// NewResilientClient wraps client using cfg's retry and rate settings.
func NewResilientClient(client Client, cfg Config) *ResilientClient {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &ResilientClient{
		client:  client,
		limiter: newRateLimiter(cfg.RateLimit),
		retry: service.RetryOptions{
			MaxAttempts:  maxRetries,
			InitialDelay: delay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Complete implements Client.
func (c *ResilientClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	var reply string
	err := common.WithRetry(ctx, func() error {
		if err := c.limiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}
		var err error
		reply, err = c.client.Complete(ctx, system, prompt)
		return err
	}, c.retry)
	return reply, err
}
