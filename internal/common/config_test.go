package common

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/responsum/internal/models"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, 2000, config.Chunking.Size)
	assert.Equal(t, 200, config.Chunking.Overlap)
	assert.Equal(t, 3, config.Retrieval.TopK)
	assert.Equal(t, "gemini-embedding-001", config.Embedding.Model)
	assert.Equal(t, 3072, config.Embedding.Dimension)
	assert.Equal(t, "local", config.Index.Provider)
	assert.Equal(t, models.PromptV2, config.PromptVersion())
}

func TestLoadFromFiles_NoFilesUsesDefaults(t *testing.T) {
	config, err := LoadFromFiles(nil)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig().Chunking, config.Chunking)
}

func TestLoadFromFiles_LaterFileOverridesEarlier(t *testing.T) {
	first := writeConfigFile(t, "base.toml", `
[chunking]
size = 1000
overlap = 100

[retrieval]
top_k = 5
`)
	second := writeConfigFile(t, "override.toml", `
[retrieval]
top_k = 7
`)

	config, err := LoadFromFiles(nil, first, second)
	require.NoError(t, err)

	assert.Equal(t, 1000, config.Chunking.Size)
	assert.Equal(t, 100, config.Chunking.Overlap)
	assert.Equal(t, 7, config.Retrieval.TopK)
	// Untouched sections keep defaults
	assert.Equal(t, 8000, config.Retrieval.ContextMaxChars)
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "base.toml", `
[chunking]
size = 1000
`)
	t.Setenv("RESPONSUM_CHUNK_SIZE", "1500")
	t.Setenv("RESPONSUM_TOP_K", "9")

	config, err := LoadFromFiles(nil, path)
	require.NoError(t, err)

	assert.Equal(t, 1500, config.Chunking.Size)
	assert.Equal(t, 9, config.Retrieval.TopK)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(nil, filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate_OverlapMustBeBelowSize(t *testing.T) {
	config := NewDefaultConfig()
	config.Chunking.Size = 100
	config.Chunking.Overlap = 100

	err := config.Validate()
	require.Error(t, err)

	var configErr *models.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Contains(t, configErr.Field, "Overlap")
}

func TestValidate_PineconeRequiresHost(t *testing.T) {
	config := NewDefaultConfig()
	config.Index.Provider = "pinecone"

	err := config.Validate()
	require.Error(t, err)

	var configErr *models.ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "index.pinecone.host", configErr.Field)

	config.Index.Pinecone.Host = "https://rag-policy-docs-abc.svc.pinecone.io"
	require.NoError(t, config.Validate())
}

func TestValidate_UnknownIndexProvider(t *testing.T) {
	config := NewDefaultConfig()
	config.Index.Provider = "weaviate"

	require.Error(t, config.Validate())
}

func TestPromptVersion_InvalidFallsBackToDefault(t *testing.T) {
	config := NewDefaultConfig()
	config.LLM.PromptVersion = 9

	assert.Equal(t, models.DefaultPromptVersion, config.PromptVersion())
}

func TestGenerationModel_FollowsProvider(t *testing.T) {
	config := NewDefaultConfig()
	assert.Equal(t, config.Gemini.Model, config.GenerationModel())

	config.LLM.DefaultProvider = LLMProviderClaude
	assert.Equal(t, config.Claude.Model, config.GenerationModel())
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "debug", false)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.HasConsoleOutput())

	ApplyFlagOverrides(config, "", true)
	assert.False(t, config.HasConsoleOutput())
	assert.Contains(t, config.Logging.Output, "file")
}

func TestResolveAPIKey_EnvWinsOverFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "sk-env")

	key, err := ResolveAPIKey(context.Background(), nil, "gemini_api_key", "sk-config")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)
}

func TestResolveAPIKey_ConfigFallback(t *testing.T) {
	key, err := ResolveAPIKey(context.Background(), nil, "unknown_key", "sk-config")
	require.NoError(t, err)
	assert.Equal(t, "sk-config", key)

	_, err = ResolveAPIKey(context.Background(), nil, "unknown_key", "")
	require.Error(t, err)
}
