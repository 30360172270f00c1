package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  model: "gpt-4o"
  max_tokens: 1000
  temperature: 0.5

retrieval:
  use_hyde: false
  similarity_threshold: 0.35
  top_k: 5

paths:
  data_dir: "/tmp/rag-test"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.False(t, cfg.Retrieval.UseHyde)
	assert.Equal(t, 0.35, cfg.Retrieval.SimilarityThreshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "/tmp/rag-test", cfg.Paths.DataDir)

	// Values absent from the file keep their defaults.
	assert.Equal(t, "text-embedding-3-small", cfg.LLM.EmbeddingModel)
	assert.True(t, cfg.Retrieval.UseSimilarityThreshold)
	assert.False(t, cfg.Retrieval.UseRerank)
	assert.Equal(t, 500, cfg.Retrieval.MaxTokensPerChunk)
	assert.Equal(t, "rerank-multilingual-v3.0", cfg.Rerank.Model)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.Retrieval.SimilarityThreshold)
	assert.True(t, cfg.Retrieval.UseHyde)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.Empty(t, cfg.Validate())
}

func TestMergeWithEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("COHERE_API_KEY", "co-test")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/rag")
	t.Setenv("RAG_DATA_DIR", "/var/lib/rag")

	cfg := defaultConfig()
	mergeWithEnv(cfg)

	assert.Equal(t, "sk-test", cfg.Keys.OpenAI)
	assert.Equal(t, "co-test", cfg.Keys.Cohere)
	assert.Equal(t, "postgres://localhost:5432/rag", cfg.Database.URL)
	assert.Equal(t, "/var/lib/rag", cfg.Paths.DataDir)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.MaxTokens = 0
	cfg.LLM.Temperature = 3
	cfg.Retrieval.SimilarityThreshold = 2
	cfg.Retrieval.TopK = 0
	cfg.Paths.DataDir = ""

	errs := cfg.Validate()
	require.Len(t, errs, 5)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "llm.max_tokens")
	assert.Contains(t, fields, "llm.temperature")
	assert.Contains(t, fields, "retrieval.similarity_threshold")
	assert.Contains(t, fields, "retrieval.top_k")
	assert.Contains(t, fields, "paths.data_dir")
}
