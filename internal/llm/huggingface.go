// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"strings"

	"resty.dev/v3"
)

// huggingfaceAPIBase is the hosted inference root. Package-level var for test substitution.
var huggingfaceAPIBase = "https://api-inference.huggingface.co"

// HuggingFace calls the hosted text-generation inference API. The API takes
// a single prompt, so the system and user messages are concatenated.
type HuggingFace struct {
	httpClient *resty.Client
	opts       Options
}

// NewHuggingFace returns a HuggingFace text-generation model.
func NewHuggingFace(apiKey string, opts Options) *HuggingFace {
	client := resty.New()
	client.SetBaseURL(huggingfaceAPIBase)
	client.SetHeader("Authorization", "Bearer "+apiKey)
	client.SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return &HuggingFace{httpClient: client, opts: opts}
}

// Name returns the model identifier.
func (c *HuggingFace) Name() string { return c.opts.Model }

// Close releases the HTTP client.
func (c *HuggingFace) Close() error { return c.httpClient.Close() }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	Temperature    float64 `json:"temperature,omitempty"`
	MaxNewTokens   int     `json:"max_new_tokens,omitempty"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// Complete runs one text generation.
func (c *HuggingFace) Complete(ctx context.Context, system, user string) (string, error) {
	body := hfRequest{
		Inputs: system + "\n\n" + user,
		Parameters: hfParameters{
			Temperature:  c.opts.Temperature,
			MaxNewTokens: c.opts.MaxTokens,
		},
	}

	var out []hfGeneration
	response, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/models/" + c.opts.Model)
	if err != nil {
		return "", fmt.Errorf("calling HuggingFace: %w", err)
	}
	if response.IsError() {
		return "", fmt.Errorf("HuggingFace returned %d: %s", response.StatusCode(), response.String())
	}

	if len(out) == 0 {
		return "", ErrEmptyCompletion
	}
	text := strings.TrimSpace(out[0].GeneratedText)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
