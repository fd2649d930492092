package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "huggingface")
	t.Setenv("HUGGINGFACE_API_KEY", "hf_test")
	t.Setenv("QDRANT_URL", "https://example.cloud.qdrant.io/")
	t.Setenv("QDRANT_API_KEY", "qd_test")
}

func TestParseDefaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":7860", cfg.ServerAddr)
	assert.Equal(t, ProviderHuggingFace, cfg.LLMCfg.Provider)
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.2", cfg.LLMCfg.HuggingFace.Model)
	assert.Equal(t, "mistralai/Mistral-7B-Instruct-v0.2", cfg.LLMCfg.ActiveModel())
	assert.Equal(t, 1000, cfg.LLMCfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.LLMCfg.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 20, cfg.MaxTopK)
	assert.Equal(t, VectorStoreQdrant, cfg.VectorStore)
	assert.Equal(t, "https://example.cloud.qdrant.io", cfg.QdrantCfg.URL)
	assert.Equal(t, "qd_test", cfg.QdrantCfg.APIKey)
	assert.Equal(t, 30*time.Second, cfg.QdrantCfg.RequestTimeout)
	assert.Equal(t, "instructions", cfg.CollectionName)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.EmbeddingCfg.Model)
	assert.Equal(t, uint(5), cfg.StartupRetry.Attempts)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestParseOpenAIAlias(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAICompatible, cfg.LLMCfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMCfg.ActiveModel())
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		message string
	}{
		{
			name:    "unknown provider",
			env:     map[string]string{"LLM_PROVIDER": "anthropic"},
			message: "LLM_PROVIDER must be one of",
		},
		{
			name:    "temperature above one",
			env:     map[string]string{"TEMPERATURE": "1.5"},
			message: "TEMPERATURE must be between 0 and 1",
		},
		{
			name:    "top_k above max",
			env:     map[string]string{"TOP_K": "30"},
			message: "TOP_K must be between 1 and MAX_TOP_K(20)",
		},
		{
			name:    "zero top_k",
			env:     map[string]string{"TOP_K": "0"},
			message: "TOP_K must be between 1",
		},
		{
			name:    "missing huggingface key",
			env:     map[string]string{"HUGGINGFACE_API_KEY": ""},
			message: "HUGGINGFACE_API_KEY is required",
		},
		{
			name:    "missing qdrant url",
			env:     map[string]string{"QDRANT_URL": ""},
			message: "QDRANT_URL is required",
		},
		{
			name:    "pgvector without database",
			env:     map[string]string{"VECTOR_STORE": "pgvector"},
			message: "DATABASE_URL is required",
		},
		{
			name:    "unknown vector store",
			env:     map[string]string{"VECTOR_STORE": "milvus"},
			message: "VECTOR_STORE must be one of",
		},
		{
			name:    "openai embeddings without base url",
			env:     map[string]string{"EMBEDDING_PROVIDER": "openai-compatible"},
			message: "EMBEDDING_BASE_URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Parse()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseCollectsAllErrors(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TEMPERATURE", "-1")
	t.Setenv("MAX_TOKENS", "0")

	_, err := Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPERATURE")
	assert.Contains(t, err.Error(), "MAX_TOKENS")
}

func TestMocksRelaxCredentials(t *testing.T) {
	t.Setenv("ENABLE_MOCKS", "true")
	t.Setenv("HUGGINGFACE_API_KEY", "")
	t.Setenv("QDRANT_URL", "")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.True(t, cfg.EnableMocks)
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}

func TestEmbeddingKeyFallsBackToHuggingFaceToken(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "hf_test", cfg.EmbeddingCfg.APIKey)

	t.Setenv("EMBEDDING_API_KEY", "emb_own")
	cfg, err = Parse()
	require.NoError(t, err)
	assert.Equal(t, "emb_own", cfg.EmbeddingCfg.APIKey)
}

func TestTelegramSendRetryDefaults(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("TELEGRAM_SEND_RETRY_ATTEMPTS", "2")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, uint(2), cfg.TelegramCfg.SendRetry.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.TelegramCfg.SendRetry.Delay)
}
