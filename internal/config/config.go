package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI      string
	DBName        string
	Port          string
	GinMode       string
	PublicBaseURL string // external URL used when signing source-file links

	// Chat endpoint
	BackendAPIKey   string
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow int
	HistoryDepth    int // exchanges of history fed back into the prompt

	// Curator auth
	JWTSecret         string
	AccessTokenTTL    string
	BcryptCost        int
	BootstrapCurator  string
	BootstrapPassword string

	// Gemini
	GeminiAPIKey          string
	GeminiModel           string
	GeminiTier            string
	GoogleEmbeddingsModel string

	// Retrieval
	VectorSearchEnabled bool
	VectorIndexName     string
	VectorDimensions    int
	RetrievalCandidates int
	RetrievalTopK       int

	// Ingestion
	MaxFileSize    int64
	AllowedTypes   []string
	MaxChunkSize   int
	ChunkOverlap   int
	MinChunkSize   int
	FileStorageDir string
	FileLinkTTL    int // seconds a signed source-file link stays valid

	// OCR service
	OCRServiceURL          string
	OCRServiceEnabled      bool
	OCRTimeout             int
	OCRConfidenceThreshold float64

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/document_rag"),
		DBName:        getEnv("DB_NAME", "document_rag"),
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		BackendAPIKey:   getEnv("BACKEND_API_KEY", ""),
		CORSOrigins:     strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		HistoryDepth:    getEnvInt("HISTORY_DEPTH", 2),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTokenTTL:    getEnv("ACCESS_TOKEN_TTL", "24h"),
		BcryptCost:        getEnvInt("BCRYPT_COST", 12),
		BootstrapCurator:  getEnv("BOOTSTRAP_CURATOR", ""),
		BootstrapPassword: getEnv("BOOTSTRAP_CURATOR_PASSWORD", ""),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),

		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "doc_chunks_vector"),
		VectorDimensions:    getEnvInt("VECTOR_DIM", 768),
		RetrievalCandidates: getEnvInt("RETRIEVAL_CANDIDATES", 16),
		RetrievalTopK:       getEnvInt("RETRIEVAL_TOP_K", 8),

		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		AllowedTypes:   strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf,text/plain,image/jpeg,image/png,image/tiff"), ","),
		MaxChunkSize:   getEnvInt("MAX_CHUNK_SIZE", 1024),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize:   getEnvInt("MIN_CHUNK_SIZE", 100),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		FileLinkTTL:    getEnvInt("FILE_LINK_TTL", 3600),

		OCRServiceURL:          getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRServiceEnabled:      getEnvBool("OCR_SERVICE_ENABLED", true),
		OCRTimeout:             getEnvInt("OCR_TIMEOUT", 300), // 5 minutes
		OCRConfidenceThreshold: getEnvFloat64("OCR_CONFIDENCE_THRESHOLD", 0.7),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
	}

	// Validate required fields
	if cfg.BackendAPIKey == "" {
		return nil, fmt.Errorf("BACKEND_API_KEY is required - set it in .env file")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
