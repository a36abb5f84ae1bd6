// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm selects and calls the language-model backend used to write
// answers. Selection happens once from configuration; an unusable
// selection degrades to the local heuristic rather than failing.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/medical-agent/pkg/types"
)

// ErrEmptyCompletion reports a model reply with no text.
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// ChatModel sends one system and one user message and returns the reply text.
type ChatModel interface {
	// Name returns the model identifier.
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
	Close() error
}

// Default model names per provider.
const (
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultAnthropicModel   = "claude-3-sonnet-20240229"
	DefaultHuggingFaceModel = "mistralai/Mistral-7B-Instruct-v0.1"
	DefaultGeminiModel      = "gemini-1.5-flash"
)

// placeholderKeys are sample values shipped in example env files.
var placeholderKeys = map[string]bool{
	"your-openai-api-key-here":      true,
	"your-anthropic-api-key-here":   true,
	"your-huggingface-api-key-here": true,
	"your-gemini-api-key-here":      true,
}

// IsPlaceholder reports whether key is empty or a known sample value.
func IsPlaceholder(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	return k == "" || placeholderKeys[k]
}

// Selection is the resolved provider. Provider is always one of the known
// variants; Reason explains a fallback to local.
type Selection struct {
	Provider types.LLMProvider
	Model    string
	Reason   string

	apiKey string
	cfg    types.LLMConfig
}

// IsLocal reports whether answers come from the heuristic summarizer.
func (s Selection) IsLocal() bool { return s.Provider == types.ProviderLocal }

// Resolve picks the provider named in cfg. An unknown provider or a
// missing or placeholder credential resolves to local.
func Resolve(cfg types.LLMConfig) Selection {
	provider := types.LLMProvider(strings.ToLower(strings.TrimSpace(string(cfg.Provider))))

	var key, model, fallback string
	switch provider {
	case types.ProviderLocal, "":
		return Selection{Provider: types.ProviderLocal, cfg: cfg}
	case types.ProviderOpenAI:
		key, model, fallback = cfg.OpenAIAPIKey, cfg.OpenAIModel, DefaultOpenAIModel
	case types.ProviderAnthropic:
		key, model, fallback = cfg.AnthropicAPIKey, cfg.AnthropicModel, DefaultAnthropicModel
	case types.ProviderHuggingFace:
		key, model, fallback = cfg.HuggingFaceAPIKey, cfg.HuggingFaceModel, DefaultHuggingFaceModel
	case types.ProviderGemini:
		key, model, fallback = cfg.GeminiAPIKey, cfg.GeminiModel, DefaultGeminiModel
	default:
		return Selection{
			Provider: types.ProviderLocal,
			Reason:   fmt.Sprintf("unknown provider %q", cfg.Provider),
			cfg:      cfg,
		}
	}

	if IsPlaceholder(key) {
		return Selection{
			Provider: types.ProviderLocal,
			Reason:   fmt.Sprintf("%s selected but no usable API key is configured", provider),
			cfg:      cfg,
		}
	}
	if model == "" {
		model = fallback
	}
	return Selection{Provider: provider, Model: model, apiKey: key, cfg: cfg}
}

// Open constructs the chat model for a non-local selection. It returns
// nil for local.
func (s Selection) Open(ctx context.Context) (ChatModel, error) {
	opts := Options{
		Model:       s.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
		Timeout:     s.cfg.Timeout,
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	switch s.Provider {
	case types.ProviderLocal:
		return nil, nil
	case types.ProviderOpenAI:
		return NewOpenAI(s.apiKey, opts), nil
	case types.ProviderAnthropic:
		return NewAnthropic(s.apiKey, opts), nil
	case types.ProviderHuggingFace:
		return NewHuggingFace(s.apiKey, opts), nil
	case types.ProviderGemini:
		return NewGemini(ctx, s.apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider %q", s.Provider)
	}
}
