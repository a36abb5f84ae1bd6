// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"
)

// anthropicAPIBase is the Claude API root. Package-level var for test substitution.
var anthropicAPIBase = "https://api.anthropic.com/v1"

// Anthropic calls the Claude Messages API.
type Anthropic struct {
	httpClient *resty.Client
	opts       Options
}

// NewAnthropic returns a Claude chat model.
func NewAnthropic(apiKey string, opts Options) *Anthropic {
	client := resty.New()
	client.SetBaseURL(anthropicAPIBase)
	client.SetHeader("x-api-key", apiKey)
	client.SetHeader("anthropic-version", "2023-06-01")
	client.SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &Anthropic{httpClient: client, opts: opts}
}

// Name returns the model identifier.
func (c *Anthropic) Name() string { return c.opts.Model }

// Close releases the HTTP client.
func (c *Anthropic) Close() error { return c.httpClient.Close() }

// claudeRequest is the request body for the Claude Messages API.
type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends one Messages API request and returns the first text block.
func (c *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	body := claudeRequest{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		System:      system,
		Temperature: c.opts.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: user}},
	}

	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&claudeResponse{}).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("Claude API returned %d: %s", response.StatusCode(), response.String())
	}

	out := response.Result().(*claudeResponse)
	if out == nil {
		return "", ErrEmptyCompletion
	}
	for _, block := range out.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", ErrEmptyCompletion
}
