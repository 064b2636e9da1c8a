package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// It is immutable after Load() returns.
type Config struct {
	Port        int
	Environment string

	DataDir         string
	DatabaseURL     string
	EmbedModel      string
	EmbedDim        int
	TopK            int
	HybridAlpha     float64
	MaxContextChars int

	LLMProvider   string // "", "openai", "ollama"
	OpenAIAPIKey  string
	OpenAIModel   string
	OllamaBaseURL string
	OllamaModel   string

	CORSOrigin       string
	RerankerTimeout  time.Duration
	GeneratorTimeout time.Duration
	MaxUploadBytes   int64
}

// Load reads configuration from environment variables.
// DATABASE_URL is required; every other variable has a default matching the
// reference service's configuration surface.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("config.Load: DATABASE_URL is required")
	}

	cfg := &Config{
		Port:        envInt("PORT", 8080),
		Environment: envStr("ENVIRONMENT", "development"),

		DataDir:         envStr("DATA_DIR", "./data"),
		DatabaseURL:     dbURL,
		EmbedModel:      envStr("EMBED_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		EmbedDim:        envInt("EMBED_DIM", 384),
		TopK:            envInt("TOP_K", 8),
		HybridAlpha:     envFloat("HYBRID_ALPHA", 0.65),
		MaxContextChars: envInt("MAX_CONTEXT_CHARS", 14000),

		LLMProvider:   envStr("LLM_PROVIDER", ""),
		OpenAIAPIKey:  envStr("OPENAI_API_KEY", ""),
		OpenAIModel:   envStr("OPENAI_MODEL", "gpt-4o-mini"),
		OllamaBaseURL: envStr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   envStr("OLLAMA_MODEL", "llama3.1"),

		CORSOrigin:       envStr("FRONTEND_URL", "http://localhost:3000"),
		RerankerTimeout:  envDuration("RERANKER_TIMEOUT", 30*time.Second),
		GeneratorTimeout: envDuration("GENERATOR_TIMEOUT", 60*time.Second),
		MaxUploadBytes:   int64(envInt("MAX_UPLOAD_BYTES", 50*1024*1024)),
	}

	if cfg.HybridAlpha < 0 || cfg.HybridAlpha > 1 {
		return nil, fmt.Errorf("config.Load: HYBRID_ALPHA must be in [0,1], got %v", cfg.HybridAlpha)
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
