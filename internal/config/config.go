package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/rag-chatbot/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Provider and store names accepted in configuration
const (
	ProviderHuggingFace      = "huggingface"
	ProviderOpenAICompatible = "openai-compatible"
	providerOpenAIAlias      = "openai"

	VectorStoreQdrant   = "qdrant"
	VectorStorePgvector = "pgvector"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr         string        `env:"SERVER_ADDR" envDefault:":7860"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	MaxRequestBytes    int64         `env:"MAX_REQUEST_BYTES" envDefault:"65536"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	AppName    string `env:"APP_NAME" envDefault:"RAG Chatbot API"`
	AppVersion string `env:"APP_VERSION" envDefault:"1.0.0"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// External service configurations
	LLMCfg       LLMConfig
	EmbeddingCfg EmbeddingConfig `envPrefix:"EMBEDDING_"`
	QdrantCfg    QdrantConfig    `envPrefix:"QDRANT_"`

	// Retrieval configuration
	VectorStore         string  `env:"VECTOR_STORE" envDefault:"qdrant"`
	CollectionName      string  `env:"COLLECTION_NAME" envDefault:"instructions"`
	TopK                int     `env:"TOP_K" envDefault:"5"`
	MaxTopK             int     `env:"MAX_TOP_K" envDefault:"20"`
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.3"`

	// Database configuration, only used by the pgvector store
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Knowledge base ingestion
	DataPath        string `env:"DATA_PATH"`
	IngestBatchSize int    `env:"INGEST_BATCH_SIZE" envDefault:"100"`

	StatsCacheTTL time.Duration        `env:"STATS_CACHE_TTL" envDefault:"30s"`
	StartupRetry  pkgRetry.RetryConfig `envPrefix:"STARTUP_RETRY_"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Environment (set from flag, not from env var)
	Environment string
}

// LLMConfig is the provider configuration, read once at startup
type LLMConfig struct {
	Provider     string            `env:"LLM_PROVIDER" envDefault:"huggingface"`
	MaxTokens    int               `env:"MAX_TOKENS" envDefault:"1000"`
	Temperature  float64           `env:"TEMPERATURE" envDefault:"0.7"`
	SystemPrompt string            `env:"SYSTEM_PROMPT" envDefault:"You are a helpful assistant that answers questions based on provided context."`
	HuggingFace  HuggingFaceConfig `envPrefix:"HUGGINGFACE_"`
	OpenAI       OpenAIConfig      `envPrefix:"OPENAI_"`
	HTTP         HTTPClientConfig  `envPrefix:"LLM_"`
}

type HuggingFaceConfig struct {
	APIKey   string `env:"API_KEY"`
	Model    string `env:"MODEL" envDefault:"mistralai/Mistral-7B-Instruct-v0.2"`
	Endpoint string `env:"ENDPOINT"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.openai.com/v1"`
}

type EmbeddingConfig struct {
	HTTPClientConfig
	Provider  string `env:"PROVIDER" envDefault:"huggingface"`
	Model     string `env:"MODEL" envDefault:"BAAI/bge-small-en-v1.5"`
	APIKey    string `env:"API_KEY"`
	BaseURL   string `env:"BASE_URL"`
	MaxLength int    `env:"MAX_LENGTH" envDefault:"512"`
}

type QdrantConfig struct {
	HTTPClientConfig
	URL    string `env:"URL"`
	APIKey string `env:"API_KEY"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"20s"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"60"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"3"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds

	SendRetry pkgRetry.RetryConfig `envPrefix:"SEND_RETRY_"`
}

// ActiveModel returns the model identifier of the selected LLM provider
func (c LLMConfig) ActiveModel() string {
	if c.Provider == ProviderOpenAICompatible {
		return c.OpenAI.Model
	}
	return c.HuggingFace.Model
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	return cfg, nil
}

// Parse reads the configuration from the process environment and validates it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	normalize(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func normalize(cfg *Config) {
	cfg.LLMCfg.Provider = strings.ToLower(strings.TrimSpace(cfg.LLMCfg.Provider))
	if cfg.LLMCfg.Provider == providerOpenAIAlias {
		cfg.LLMCfg.Provider = ProviderOpenAICompatible
	}

	cfg.EmbeddingCfg.Provider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingCfg.Provider))
	if cfg.EmbeddingCfg.Provider == providerOpenAIAlias {
		cfg.EmbeddingCfg.Provider = ProviderOpenAICompatible
	}

	// The embedding endpoint shares the LLM token unless it has its own
	if cfg.EmbeddingCfg.APIKey == "" && cfg.EmbeddingCfg.Provider == ProviderHuggingFace {
		cfg.EmbeddingCfg.APIKey = cfg.LLMCfg.HuggingFace.APIKey
	}

	cfg.VectorStore = strings.ToLower(strings.TrimSpace(cfg.VectorStore))
	cfg.QdrantCfg.URL = strings.TrimRight(cfg.QdrantCfg.URL, "/")
}

func validateConfig(cfg *Config) error {
	var errors []string

	// Validate LLM configuration
	switch cfg.LLMCfg.Provider {
	case ProviderHuggingFace:
		if cfg.LLMCfg.HuggingFace.APIKey == "" && !cfg.EnableMocks {
			errors = append(errors, "HUGGINGFACE_API_KEY is required when LLM_PROVIDER=huggingface")
		}
	case ProviderOpenAICompatible:
		if cfg.LLMCfg.OpenAI.APIKey == "" && !cfg.EnableMocks {
			errors = append(errors, "OPENAI_API_KEY is required when LLM_PROVIDER=openai-compatible")
		}
	default:
		errors = append(errors, fmt.Sprintf("LLM_PROVIDER must be one of huggingface, openai-compatible, got %q", cfg.LLMCfg.Provider))
	}

	if cfg.LLMCfg.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("MAX_TOKENS must be positive, got %d", cfg.LLMCfg.MaxTokens))
	}

	if cfg.LLMCfg.Temperature < 0 || cfg.LLMCfg.Temperature > 1 {
		errors = append(errors, fmt.Sprintf("TEMPERATURE must be between 0 and 1, got %g", cfg.LLMCfg.Temperature))
	}

	// Validate embedding configuration
	switch cfg.EmbeddingCfg.Provider {
	case ProviderHuggingFace:
	case ProviderOpenAICompatible:
		if cfg.EmbeddingCfg.BaseURL == "" && !cfg.EnableMocks {
			errors = append(errors, "EMBEDDING_BASE_URL is required when EMBEDDING_PROVIDER=openai-compatible")
		}
	default:
		errors = append(errors, fmt.Sprintf("EMBEDDING_PROVIDER must be one of huggingface, openai-compatible, got %q", cfg.EmbeddingCfg.Provider))
	}

	// Validate retrieval configuration
	if cfg.MaxTopK < 1 {
		errors = append(errors, fmt.Sprintf("MAX_TOP_K must be positive, got %d", cfg.MaxTopK))
	}

	if cfg.TopK < 1 || cfg.TopK > cfg.MaxTopK {
		errors = append(errors, fmt.Sprintf("TOP_K must be between 1 and MAX_TOP_K(%d), got %d", cfg.MaxTopK, cfg.TopK))
	}

	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		errors = append(errors, fmt.Sprintf("SIMILARITY_THRESHOLD must be between 0 and 1, got %g", cfg.SimilarityThreshold))
	}

	if cfg.CollectionName == "" {
		errors = append(errors, "COLLECTION_NAME must not be empty")
	}

	switch cfg.VectorStore {
	case VectorStoreQdrant:
		if cfg.QdrantCfg.URL == "" && !cfg.EnableMocks {
			errors = append(errors, "QDRANT_URL is required when VECTOR_STORE=qdrant")
		}
	case VectorStorePgvector:
		if cfg.DatabaseURL == "" && !cfg.EnableMocks {
			errors = append(errors, "DATABASE_URL is required when VECTOR_STORE=pgvector")
		}
		// Validate Database configuration
		if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
			errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
		}
		if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
			errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
		}
	default:
		errors = append(errors, fmt.Sprintf("VECTOR_STORE must be one of qdrant, pgvector, got %q", cfg.VectorStore))
	}

	if cfg.IngestBatchSize < 1 || cfg.IngestBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("INGEST_BATCH_SIZE must be between 1 and 1000, got %d", cfg.IngestBatchSize))
	}

	// Validate Telegram configuration
	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
