package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Ai        AIConfig
	Vector    VectorConfig
	Realtime  RealtimeConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "openai"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama" or "openai"
	LLMModel          string
	OpenAIAPIKey      string
	OpenAIBaseURL     string // any OpenAI compatible endpoint, e.g. Groq

	TriggerMode       string // "direct", "observer" or "both"
	MentionKeyword    string
	HistoryLimit      int
	ObserverWindow    int
	TopK              int
	GenerationTimeout int // seconds, per attempt
	GenerationRetries int
	Temperature       float64
	MaxTokens         int
}

type VectorConfig struct {
	Backend   string // "pgvector" or "memory"
	StorePath string // chromem persistence dir, empty keeps the index in memory
}

type RealtimeConfig struct {
	WorkerPoolSize   int
	WorkerMaxPending int // 0 keeps the pool default
	IndexTopic       string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
			TriggerMode:       strings.ToLower(getEnv("AI_TRIGGER_MODE", "both")),
			MentionKeyword:    strings.ToLower(getEnv("AI_MENTION_KEYWORD", "nexus")),
			HistoryLimit:      getEnvAsInt("AI_HISTORY_LIMIT", 30),
			ObserverWindow:    getEnvAsInt("AI_OBSERVER_WINDOW", 5),
			TopK:              getEnvAsInt("RAG_TOP_K", 5),
			GenerationTimeout: getEnvAsInt("GENERATION_TIMEOUT_SECONDS", 30),
			GenerationRetries: getEnvAsInt("GENERATION_MAX_RETRIES", 3),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
		Vector: VectorConfig{
			Backend:   getEnv("VECTOR_BACKEND", "pgvector"),
			StorePath: getEnv("VECTOR_STORE_PATH", ""),
		},
		Realtime: RealtimeConfig{
			WorkerPoolSize:   getEnvAsInt("WORKER_POOL_SIZE", 8),
			WorkerMaxPending: getEnvAsInt("WORKER_MAX_PENDING", 0),
			IndexTopic:       getEnv("INDEX_MESSAGE_TOPIC_NAME", "INDEX_CHAT_MESSAGE"),
		},
		RateLimit: RateLimitConfig{
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 30),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
	}
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

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
