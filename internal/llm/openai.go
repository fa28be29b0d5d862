package llm

import (
	"context"
	"fmt"
	"strings"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIClient implements Client for the OpenAI chat completions API and any
// server that speaks the same protocol.
type openAIClient struct {
	endpoint
}

func newOpenAIClient(cfg Config) (*openAIClient, error) {
	ep, err := newEndpoint(cfg, "OpenAI", "gpt-4o", openAIBaseURL)
	if err != nil {
		return nil, err
	}
	return &openAIClient{endpoint: ep}, nil
}

// Complete sends one system and one user message and returns the reply text.
func (c *openAIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]map[string]string, 0, 2)
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	requestBody := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	var response openAIResponse
	err := c.post(ctx, "/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey},
		requestBody, &response)
	if err != nil {
		return "", fmt.Errorf("OpenAI API: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API: %w", ErrEmptyCompletion)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// openAIResponse represents the OpenAI API response structure.
type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
