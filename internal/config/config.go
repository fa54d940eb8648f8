package config

import (
	"os"
	"strconv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// LLMConfig holds settings for the model provider used by generation jobs.
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSec     int
	MaxFixAttempts int
}

// PreviewConfig controls the simulated preview environment lifecycle.
type PreviewConfig struct {
	BuildDelaySec    int
	TTLSec           int
	SweepIntervalSec int
}

// CollabConfig controls collaboration room lifecycle and limits.
type CollabConfig struct {
	RoomIdleTTLSec   int
	SweepIntervalSec int
	MaxParticipants  int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	LLM      LLMConfig
	Preview  PreviewConfig
	Collab   CollabConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"), // default only for non-sensitive value
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         getEnv("LLM_API_KEY", ""),
			Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
			TimeoutSec:     getEnvInt("LLM_TIMEOUT_SEC", 120),
			MaxFixAttempts: getEnvInt("LLM_MAX_FIX_ATTEMPTS", 3),
		},
		Preview: PreviewConfig{
			BuildDelaySec:    getEnvInt("PREVIEW_BUILD_DELAY_SEC", 5),
			TTLSec:           getEnvInt("PREVIEW_TTL_SEC", 3600),
			SweepIntervalSec: getEnvInt("PREVIEW_SWEEP_INTERVAL_SEC", 60),
		},
		Collab: CollabConfig{
			RoomIdleTTLSec:   getEnvInt("COLLAB_ROOM_IDLE_TTL_SEC", 300),
			SweepIntervalSec: getEnvInt("COLLAB_SWEEP_INTERVAL_SEC", 60),
			MaxParticipants:  getEnvInt("COLLAB_MAX_PARTICIPANTS", 32),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
