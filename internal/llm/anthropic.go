package llm

import (
	"context"
	"fmt"
	"strings"
)

const anthropicBaseURL = "https://api.anthropic.com/v1"

// anthropicClient implements Client for the Anthropic messages API.
type anthropicClient struct {
	endpoint
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	ep, err := newEndpoint(cfg, "anthropic", "claude-3-5-haiku-latest", anthropicBaseURL)
	if err != nil {
		return nil, err
	}
	return &anthropicClient{endpoint: ep}, nil
}

// Complete sends the prompt with an optional system instruction.
func (c *anthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if system != "" {
		requestBody["system"] = system
	}

	var response anthropicResponse
	err := c.post(ctx, "/messages",
		map[string]string{
			"x-api-key":         c.apiKey,
			"anthropic-version": "2023-06-01",
		},
		requestBody, &response)
	if err != nil {
		return "", fmt.Errorf("anthropic API: %w", err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" || block.Type == "" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic API: %w", ErrEmptyCompletion)
	}
	return strings.TrimSpace(sb.String()), nil
}

// anthropicResponse represents the Anthropic API response structure.
type anthropicResponse struct {
	ID         string `json:"id"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
