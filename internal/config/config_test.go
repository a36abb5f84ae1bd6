// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medical-agent/internal/evidence"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// isolate runs the test in an empty directory with no inherited settings.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	for key, env := range plainEnv {
		t.Setenv(env, "")
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, types.EvidenceWikipedia, cfg.Evidence.Provider)
	assert.Equal(t, 5, cfg.Evidence.MaxResults)
	assert.Equal(t, 8*time.Second, cfg.Evidence.Timeout)
	assert.Equal(t, evidence.UserAgent, cfg.Evidence.UserAgent)
	assert.Equal(t, 2, cfg.Evidence.MaxRetries)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, types.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, types.ProviderLocal, cfg.LLM.Provider)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Server.Debug)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		secrets map[string]string
		check   func(t *testing.T, cfg *types.Config)
	}{
		{
			name: "yaml file overrides defaults",
			file: `evidence:
  provider: pubmed
  max_results: 10
  timeout: 3
cache:
  ttl: 30m
  backend: sqlite
  path: data/cache.db
server:
  debug: true
`,
			check: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, types.EvidencePubMed, cfg.Evidence.Provider)
				assert.Equal(t, 10, cfg.Evidence.MaxResults)
				assert.Equal(t, 3*time.Second, cfg.Evidence.Timeout)
				assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
				assert.Equal(t, types.CacheSQLite, cfg.Cache.Backend)
				assert.Equal(t, "data/cache.db", cfg.Cache.Path)
				assert.True(t, cfg.Server.Debug)
			},
		},
		{
			name: "plain environment names",
			env: map[string]string{
				"LLM_PROVIDER":    " OpenAI ",
				"OPENAI_API_KEY":  "sk-env",
				"REQUEST_TIMEOUT": "12",
				"CACHE_TTL":       "3600",
				"ENABLE_CACHE":    "false",
				"EVIDENCE_SOURCE": "pubmed",
			},
			check: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, types.ProviderOpenAI, cfg.LLM.Provider)
				assert.Equal(t, "sk-env", cfg.LLM.OpenAIAPIKey)
				assert.Equal(t, 12*time.Second, cfg.Evidence.Timeout)
				assert.Equal(t, time.Hour, cfg.Cache.TTL)
				assert.False(t, cfg.Cache.Enabled)
				assert.Equal(t, types.EvidencePubMed, cfg.Evidence.Provider)
			},
		},
		{
			name: "prefixed environment beats file",
			file: "server:\n  addr: \":7000\"\n",
			env: map[string]string{
				"MEDICAL_AGENT_SERVER_ADDR":    ":8080",
				"MEDICAL_AGENT_CACHE_TTL":      "90s",
				"MEDICAL_AGENT_LLM_MAX_TOKENS": "256",
			},
			check: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, ":8080", cfg.Server.Addr)
				assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
				assert.Equal(t, 256, cfg.LLM.MaxTokens)
			},
		},
		{
			name:    "secrets fill empty keys only",
			env:     map[string]string{"ANTHROPIC_API_KEY": "from-env"},
			secrets: map[string]string{"anthropic-api-key": "from-file", "pubmed-api-key": "ncbi", "unrelated": "x"},
			check: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, "from-env", cfg.LLM.AnthropicAPIKey)
				assert.Equal(t, "ncbi", cfg.Evidence.PubMedAPIKey)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := Options{}
			if tt.file != "" {
				writeFile(t, filepath.Join(dir, "medical-agent.yaml"), tt.file)
			}
			if tt.secrets != nil {
				opts.SecretsDir = filepath.Join(dir, ".secrets")
				for name, v := range tt.secrets {
					writeFile(t, filepath.Join(opts.SecretsDir, name), v+"\n")
				}
			}

			cfg, err := Load(opts)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.Unsetenv("GEMINI_MODEL"))
	t.Cleanup(func() { os.Unsetenv("GEMINI_MODEL") })
	writeFile(t, filepath.Join(dir, "custom.env"), "GEMINI_MODEL=gemini-test\n")

	cfg, err := Load(Options{EnvFile: "custom.env"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-test", cfg.LLM.GeminiModel)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "agent.yml")
	writeFile(t, path, "llm:\n  provider: gemini\n")

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, types.ProviderGemini, cfg.LLM.Provider)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr []string
	}{
		{
			name:    "malformed yaml",
			file:    "evidence:\n  provider: [[[\n",
			wantErr: []string{"configuration file found but could not be read"},
		},
		{
			name:    "unknown evidence source",
			file:    "evidence:\n  provider: bing\n",
			wantErr: []string{"invalid configuration", "evidence.provider"},
		},
		{
			name:    "sqlite without path",
			file:    "cache:\n  backend: sqlite\n  path: \"\"\n",
			wantErr: []string{"cache.path"},
		},
		{
			name:    "missing policy file",
			file:    "policy:\n  file: nope.yaml\n",
			wantErr: []string{"policy.file must be an existing and readable file"},
		},
		{
			name:    "several violations are joined",
			file:    "evidence:\n  max_results: 0\nllm:\n  temperature: 5\n",
			wantErr: []string{"evidence.max_results", "llm.temperature", "; "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeFile(t, filepath.Join(dir, "medical-agent.yaml"), tt.file)

			_, err := Load(Options{})
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestSecondsToDuration(t *testing.T) {
	durType := reflect.TypeOf(time.Duration(0))
	tests := []struct {
		in   any
		want any
	}{
		{"8", 8 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"2m", 2 * time.Minute},
		{5, 5 * time.Second},
		{time.Minute, time.Minute},
	}
	for _, tt := range tests {
		got, err := secondsToDuration(nil, durType, tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}

	_, err := secondsToDuration(nil, durType, "soon")
	assert.Error(t, err)
}
