package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration for the relay API.
type Config struct {
	// OllamaURL is the inference backend base URL. It may be empty at load time;
	// the tags route reports it as missing per request.
	OllamaURL         string
	RAGServerURL      string
	APIPort           string
	LogLevel          slog.Level
	LogFormat         string
	BackgroundWorkers int
	StoreTimeout      time.Duration
	ImageMaxBytes     int64
}

// RAGConfig holds configuration for the retrieval service.
type RAGConfig struct {
	Port              string
	QdrantURL         string
	QdrantCollection  string
	QdrantVectorSize  int
	DBPath            string
	EmbeddingProvider string
	EmbeddingBaseURL  string
	EmbeddingModel    string
	EmbeddingAPIKey   string
	TopK              int
	LogLevel          slog.Level
	LogFormat         string
}

// Load reads the relay configuration from environment variables.
// If a .env file exists in the current directory or a parent, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		OllamaURL:    strings.TrimRight(os.Getenv("OLLAMA_URL"), "/"),
		RAGServerURL: strings.TrimRight(getEnv("RAG_SERVER_URL", "http://localhost:8000"), "/"),
		APIPort:      getEnv("API_PORT", "9000"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.BackgroundWorkers, err = getEnvInt("BACKGROUND_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.BackgroundWorkers <= 0 {
		return nil, fmt.Errorf("BACKGROUND_WORKERS must be greater than 0")
	}
	if cfg.StoreTimeout, err = getEnvDuration("STORE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	maxBytes, err := getEnvInt("IMAGE_MAX_BYTES", 20<<20)
	if err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("IMAGE_MAX_BYTES must be greater than 0")
	}
	cfg.ImageMaxBytes = int64(maxBytes)

	if err := validateFormat(cfg.LogFormat); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadRAG reads the retrieval service configuration from environment variables.
func LoadRAG() (*RAGConfig, error) {
	loadDotEnv()

	cfg := &RAGConfig{
		Port:              getEnv("RAG_PORT", "8000"),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "chat_memory"),
		DBPath:            getEnv("DB_PATH", "./data/rag_store.db"),
		EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "ollama")),
		EmbeddingBaseURL:  strings.TrimRight(getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"), "/"),
		// all-minilm matches the sentence-transformers model the store was first built with (384 dims).
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingAPIKey: getEnv("EMBEDDING_API_KEY", ""),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if err := validateFormat(cfg.LogFormat); err != nil {
		return nil, err
	}

	switch cfg.EmbeddingProvider {
	case "ollama", "openai":
	default:
		return nil, fmt.Errorf("EMBEDDING_PROVIDER must be one of ollama, openai: got %q", cfg.EmbeddingProvider)
	}

	// Must match the output size of the embedding model. Changing it requires
	// recreating the Qdrant collection.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	if cfg.TopK, err = getEnvInt("RAG_TOP_K", 3); err != nil {
		return nil, err
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("RAG_TOP_K must be greater than 0")
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads .env from the current directory, then walks up looking for one.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return v, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	return level, nil
}

func validateFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json: got %q", format)
	}
	return nil
}
