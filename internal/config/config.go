// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds a types.Config from defaults, a YAML file, a .env
// file, environment variables and the .secrets/ directory, in increasing
// order of precedence for everything except secrets, which only fill keys
// left empty.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/medical-agent/internal/evidence"
	"github.com/pdiddy/medical-agent/internal/secrets"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// EnvPrefix prefixes automatically bound environment variables, e.g.
// MEDICAL_AGENT_CACHE_BACKEND for cache.backend.
const EnvPrefix = "MEDICAL_AGENT"

// Options controls where Load looks for its inputs. The zero value uses
// the working-directory defaults.
type Options struct {
	// File is an explicit config file. When empty, medical-agent.yaml is
	// searched in the working directory and ~/.config/medical-agent.
	File string

	// EnvFile is the dotenv file loaded before reading the environment.
	EnvFile string

	// SecretsDir holds one file per API key.
	SecretsDir string

	Logger *slog.Logger
}

// plainEnv binds settings to the unprefixed variable names used in
// deployment environments.
var plainEnv = map[string]string{
	"llm.provider":            "LLM_PROVIDER",
	"llm.openai_api_key":      "OPENAI_API_KEY",
	"llm.openai_model":        "OPENAI_MODEL",
	"llm.anthropic_api_key":   "ANTHROPIC_API_KEY",
	"llm.anthropic_model":     "ANTHROPIC_MODEL",
	"llm.huggingface_api_key": "HUGGINGFACE_API_KEY",
	"llm.huggingface_model":   "HUGGINGFACE_MODEL",
	"llm.gemini_api_key":      "GEMINI_API_KEY",
	"llm.gemini_model":        "GEMINI_MODEL",
	"evidence.pubmed_api_key": "PUBMED_API_KEY",
	"evidence.timeout":        "REQUEST_TIMEOUT",
	"evidence.max_results":    "MAX_RESULTS",
	"evidence.provider":       "EVIDENCE_SOURCE",
	"cache.enabled":           "ENABLE_CACHE",
	"cache.ttl":               "CACHE_TTL",
}

// secretKeys maps .secrets/ file names to the setting they fill.
var secretKeys = map[string]func(*types.Config) *string{
	"openai-api-key":      func(c *types.Config) *string { return &c.LLM.OpenAIAPIKey },
	"anthropic-api-key":   func(c *types.Config) *string { return &c.LLM.AnthropicAPIKey },
	"huggingface-api-key": func(c *types.Config) *string { return &c.LLM.HuggingFaceAPIKey },
	"gemini-api-key":      func(c *types.Config) *string { return &c.LLM.GeminiAPIKey },
	"pubmed-api-key":      func(c *types.Config) *string { return &c.Evidence.PubMedAPIKey },
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("evidence.provider", string(types.EvidenceWikipedia))
	v.SetDefault("evidence.max_results", 5)
	v.SetDefault("evidence.timeout", 8*time.Second)
	v.SetDefault("evidence.user_agent", evidence.UserAgent)
	v.SetDefault("evidence.max_retries", 2)
	v.SetDefault("evidence.tool", "medical_agent")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.backend", string(types.CacheMemory))
	v.SetDefault("cache.path", ".cache/evidence.db")

	v.SetDefault("llm.provider", string(types.ProviderLocal))
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", 20*time.Second)

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.debug", false)

	v.SetDefault("policy.file", "")
}

// Load reads and validates the configuration.
func Load(opts Options) (*types.Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("medical-agent")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/medical-agent")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range plainEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w", err)
		}
	} else {
		logger.Debug("using config file", "path", v.ConfigFileUsed())
	}

	var cfg types.Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDuration,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.LLM.Provider = types.LLMProvider(strings.ToLower(strings.TrimSpace(string(cfg.LLM.Provider))))

	if opts.SecretsDir != "" {
		if err := applySecrets(&cfg, opts.SecretsDir, logger); err != nil {
			return nil, err
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applySecrets(cfg *types.Config, dir string, logger *slog.Logger) error {
	names := make([]string, 0, len(secretKeys))
	for name := range secretKeys {
		names = append(names, name)
	}
	slices.Sort(names)
	loaded, err := secrets.Load(dir, names, logger)
	if err != nil {
		return err
	}
	for name, value := range loaded {
		if dst := secretKeys[name](cfg); *dst == "" {
			*dst = value
			logger.Debug("api key loaded from secrets", "key", name)
		}
	}
	return nil
}

// secondsToDuration accepts bare numbers as seconds so REQUEST_TIMEOUT=8
// and "ttl: 3600" keep working alongside Go duration strings.
func secondsToDuration(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch d := data.(type) {
	case string:
		s := strings.TrimSpace(d)
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return time.ParseDuration(s)
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	}
	return data, nil
}
