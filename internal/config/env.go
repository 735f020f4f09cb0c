package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	ObjectStore  string

	LLMProvider      string
	AIAPIKey         string
	EmbedModel       string
	GenModel         string
	OllamaHost       string
	OllamaEmbedModel string
	OllamaGenModel   string

	VectorBackend string
	QdrantHost    string
	QdrantPort    int
	QdrantAPIKey  string

	RabbitMQURL string
	IngestQueue string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	IngestLockTTL int

	JWTSecret      string
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	IngestWorkers  int
	MaxUploadMB    int
	LawsDir        string
	CORSOrigins    []string
	Port           string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "legalmind-docs"),
		ObjectStore:  getEnv("OBJECT_BACKEND", "s3"),

		LLMProvider:      getEnv("LLM_PROVIDER", "gemini"),
		AIAPIKey:         getEnv("GEMINI_API_KEY", ""),
		EmbedModel:       getEnv("EMBED_MODEL", "text-embedding-004"),
		GenModel:         getEnv("GEN_MODEL", "gemini-1.5-flash"),
		OllamaHost:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		OllamaGenModel:   getEnv("OLLAMA_GEN_MODEL", "llama3.2"),

		VectorBackend: getEnv("VECTOR_BACKEND", "pgvector"),
		QdrantHost:    getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:    getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:  getEnv("QDRANT_API_KEY", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		IngestQueue: getEnv("INGEST_QUEUE", "legalmind.ingest"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		IngestLockTTL: getEnvInt("INGEST_LOCK_TTL_SECONDS", 900),

		JWTSecret:      getEnv("JWT_SECRET", ""),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		EmbedBatchSize: getEnvInt("EMBED_BATCH_SIZE", 64),
		IngestWorkers:  getEnvInt("INGEST_WORKERS", 2),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 50),
		LawsDir:        getEnv("LAWS_DIR", "./data/laws"),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		Port:           getEnv("PORT", "8080"),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
