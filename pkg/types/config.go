// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds every upstream request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// UserAgent is the identifying header sent with every upstream request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent" validate:"required"`

	// MaxRetries is the number of retries on HTTP 429 before giving up.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

// EvidenceProvider selects the external knowledge source.
type EvidenceProvider string

const (
	EvidenceWikipedia EvidenceProvider = "wikipedia"
	EvidencePubMed    EvidenceProvider = "pubmed"
)

// EvidenceConfig holds settings for the evidence source client.
type EvidenceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Provider is "wikipedia" or "pubmed".
	Provider EvidenceProvider `json:"provider" yaml:"provider" mapstructure:"provider" validate:"oneof=wikipedia pubmed"`

	// MaxResults is the upstream result-count limit (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"min=1,max=50"`

	// PubMedAPIKey raises the NCBI rate limit when set.
	PubMedAPIKey string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty" mapstructure:"pubmed_api_key"`

	// Tool is the identifier sent as the E-utilities "tool" parameter.
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`
}

// CacheBackend selects where evidence lookups are cached.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
)

// CacheConfig holds settings for the evidence cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl" validate:"gt=0"`
	Backend CacheBackend  `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=memory sqlite"`

	// Path is the SQLite database file used when Backend is "sqlite".
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required_if=Backend sqlite"`
}

// LLMProvider names a language-model backend.
type LLMProvider string

const (
	ProviderLocal       LLMProvider = "local"
	ProviderOpenAI      LLMProvider = "openai"
	ProviderAnthropic   LLMProvider = "anthropic"
	ProviderHuggingFace LLMProvider = "huggingface"
	ProviderGemini      LLMProvider = "gemini"
)

// LLMConfig holds language-model selection and credentials. Only the key
// belonging to Provider is used.
type LLMConfig struct {
	Provider    LLMProvider   `json:"provider" yaml:"provider" mapstructure:"provider"`
	Temperature float64       `json:"temperature" yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	OpenAIAPIKey      string `json:"-" yaml:"-" mapstructure:"openai_api_key"`
	OpenAIModel       string `json:"openai_model" yaml:"openai_model" mapstructure:"openai_model"`
	AnthropicAPIKey   string `json:"-" yaml:"-" mapstructure:"anthropic_api_key"`
	AnthropicModel    string `json:"anthropic_model" yaml:"anthropic_model" mapstructure:"anthropic_model"`
	HuggingFaceAPIKey string `json:"-" yaml:"-" mapstructure:"huggingface_api_key"`
	HuggingFaceModel  string `json:"huggingface_model" yaml:"huggingface_model" mapstructure:"huggingface_model"`
	GeminiAPIKey      string `json:"-" yaml:"-" mapstructure:"gemini_api_key"`
	GeminiModel       string `json:"gemini_model" yaml:"gemini_model" mapstructure:"gemini_model"`
}

// ServerConfig holds settings for the HTTP layer.
type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`

	// Debug exposes the per-stage trace endpoint.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// PolicyConfig points at an external validation policy table.
type PolicyConfig struct {
	File string `json:"file" yaml:"file" mapstructure:"file" validate:"omitempty,file"`
}

// Config groups every setting the agent consumes. It is built once at
// process start and passed to the components that need it.
type Config struct {
	Evidence EvidenceConfig `json:"evidence" yaml:"evidence" mapstructure:"evidence"`
	Cache    CacheConfig    `json:"cache" yaml:"cache" mapstructure:"cache"`
	LLM      LLMConfig      `json:"llm" yaml:"llm" mapstructure:"llm"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Policy   PolicyConfig   `json:"policy" yaml:"policy" mapstructure:"policy"`
}
