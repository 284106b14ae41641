package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Session  SessionConfig
	Vector   VectorConfig
	Chunking ChunkingConfig
	Ai       AIConfig
	Keys     APIKeys
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
	PurgeTopic         string
}

type SessionConfig struct {
	DefaultQuota int
	TTLHours     int
}

type VectorConfig struct {
	Backend          string // "qdrant" or "pgvector"
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	Dimension        int
	PostgresDSN      string
}

type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "gemini"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
}

type APIKeys struct {
	GoogleGemini string
	OpenAI       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			PurgeTopic:         getEnv("PURGE_TENANT_TOPIC_NAME", "PURGE_TENANT_CHUNKS"),
		},
		Session: SessionConfig{
			DefaultQuota: getEnvAsInt("SESSION_DEFAULT_QUOTA", 10),
			TTLHours:     getEnvAsInt("SESSION_TTL_HOURS", 24),
		},
		Vector: VectorConfig{
			Backend:          getEnv("VECTOR_BACKEND", "qdrant"),
			QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
			QdrantPort:       getEnvAsInt("QDRANT_PORT", 6334),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "doc_chunks"),
			Dimension:        getEnvAsInt("VECTOR_DIMENSION", 768),
			PostgresDSN:      getEnv("DB_CONNECTION_STRING", ""),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
		},
	}
}

// Validate checks the settings every pipeline stage depends on, so a broken
// deployment is rejected before any ingestion or question does work.
func (c *Config) Validate() error {
	if c.App.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for session bookkeeping")
	}

	switch c.Vector.Backend {
	case "qdrant":
		if c.Vector.QdrantHost == "" || c.Vector.QdrantCollection == "" {
			return fmt.Errorf("QDRANT_HOST and QDRANT_COLLECTION are required for the qdrant backend")
		}
	case "pgvector":
		if c.Vector.PostgresDSN == "" {
			return fmt.Errorf("DB_CONNECTION_STRING is required for the pgvector backend")
		}
	default:
		return fmt.Errorf("unsupported vector backend: %s", c.Vector.Backend)
	}

	if c.Ai.EmbeddingProvider == "gemini" && c.Keys.GoogleGemini == "" {
		return fmt.Errorf("GOOGLE_GEMINI_API_KEY is required for the gemini embedding provider")
	}
	if c.Ai.LLMProvider == "openai" && c.Keys.OpenAI == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai LLM provider")
	}

	if c.Chunking.ChunkSize <= 0 || c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("invalid chunking config: size=%d overlap=%d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
