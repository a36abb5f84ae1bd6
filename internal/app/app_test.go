// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/medical-agent/internal/validate"
	"github.com/pdiddy/medical-agent/pkg/types"
)

func testConfig() *types.Config {
	return &types.Config{
		Evidence: types.EvidenceConfig{
			HTTPConfig: types.HTTPConfig{Timeout: time.Second, UserAgent: "test", MaxRetries: 0},
			Provider:   types.EvidenceWikipedia,
			MaxResults: 3,
		},
		Cache: types.CacheConfig{Enabled: true, TTL: time.Minute, Backend: types.CacheMemory},
		LLM:   types.LLMConfig{Provider: types.ProviderOpenAI, OpenAIAPIKey: "your-openai-api-key-here", Timeout: time.Second},
	}
}

func TestBuildFallsBackToLocal(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "Wikipedia", a.Source)
	assert.True(t, a.Selection.IsLocal())
	assert.NotEmpty(t, a.Selection.Reason)
	require.NotNil(t, a.Agent)

	// Rejected before any network call.
	resp := a.Agent.Ask(context.Background(), "What is the weather like?")
	assert.Equal(t, types.ErrorValidation, resp.ErrorKind)
	assert.Equal(t, validate.MsgNotMedical, resp.Error)
}

func TestBuildWithPolicyFileAndSQLiteCache(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policyPath, []byte("medical_keywords: [\"gout\"]\n"), 0o644))

	cfg := testConfig()
	cfg.Policy.File = policyPath
	cfg.Cache.Backend = types.CacheSQLite
	cfg.Cache.Path = filepath.Join(dir, "cache", "evidence.db")
	cfg.Evidence.Provider = types.EvidencePubMed

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "PubMed", a.Source)
	assert.FileExists(t, cfg.Cache.Path)

	resp := a.Agent.Ask(context.Background(), "What is diabetes?")
	assert.Equal(t, validate.MsgNotMedical, resp.Error, "custom policy replaces default keywords")
	require.NoError(t, a.Close())
}

func TestBuildBadPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.Policy.File = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Build(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "loading policy")
}
