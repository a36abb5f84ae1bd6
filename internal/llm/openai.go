// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"resty.dev/v3"
)

// openaiAPIBase is the OpenAI REST root. Package-level var for test substitution.
var openaiAPIBase = "https://api.openai.com/v1"

// Options are the per-call settings shared by every chat model.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int

	// Timeout bounds one call. Calls are never retried.
	Timeout time.Duration
}

// OpenAI calls the chat completions endpoint.
type OpenAI struct {
	httpClient *resty.Client
	opts       Options
}

// NewOpenAI returns an OpenAI chat model.
func NewOpenAI(apiKey string, opts Options) *OpenAI {
	client := resty.New()
	client.SetBaseURL(openaiAPIBase)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &OpenAI{httpClient: client, opts: opts}
}

// Name returns the model identifier.
func (c *OpenAI) Name() string { return c.opts.Model }

// Close releases the HTTP client.
func (c *OpenAI) Close() error { return c.httpClient.Close() }

type openaiRequest struct {
	Model          string            `json:"model"`
	Messages       []openaiMessage   `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat *openaiRespFormat `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRespFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message openaiMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request.
func (c *OpenAI) Complete(ctx context.Context, system, user string) (string, error) {
	body := openaiRequest{
		Model: c.opts.Model,
		Messages: []openaiMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.opts.Temperature,
		MaxTokens:      c.opts.MaxTokens,
		ResponseFormat: &openaiRespFormat{Type: "json_object"},
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&openaiResponse{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("OpenAI returned %d: %s", response.StatusCode(), response.String())
	}

	out := response.Result().(*openaiResponse)
	if out == nil || len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	slog.Default().Debug("openai completion", "model", c.opts.Model, "chars", len(text))
	return text, nil
}
