package config

import (
	"os"
	"strconv"
	"time"
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
	// ApplicationName and StatementTimeout are sent as session parameters.
	ApplicationName  string
	StatementTimeout time.Duration
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PresignTTL time.Duration
}

// RedisConfig points at the key/value store backing the job registry.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LLMConfig configures the OpenAI-compatible structured claim extractor.
// An empty APIKey disables the collaborator and routes every block to the fallback.
type LLMConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float64
	MaxInputChars int
}

// IntakeConfig bounds what the intake admits.
type IntakeConfig struct {
	MaxBytes int64
	MinBytes int
	ClaimTTL time.Duration
}

// PipelineConfig carries the policy knobs of the extraction pipeline.
type PipelineConfig struct {
	MinTextChars       int
	MinBlockChars      int
	MatchThreshold     float64
	FallbackConfidence int
	ExtractConcurrency int
	ExtractTimeout     time.Duration
	ProcessOnUpload    bool
}

// SchedulerConfig configures the reprocessing scheduler and its retry policy.
type SchedulerConfig struct {
	Enabled    bool
	Interval   time.Duration
	BatchSize  int
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	JobTimeout time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost   string
	Port      string
	LogLevel  string
	Timezone  string
	Database  DatabaseConfig
	MinIO     MinIOConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Intake    IntakeConfig
	Pipeline  PipelineConfig
	Scheduler SchedulerConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("TZ", "UTC"),
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
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "remitapi"),
			StatementTimeout:   getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		MinIO: MinIOConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", ""),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:  getEnv("MINIO_SECRET_KEY", ""),
			Bucket:     getEnv("MINIO_BUCKET", ""),
			UseSSL:     getEnvBool("MINIO_USE_SSL", false),
			PresignTTL: getEnvDuration("PRESIGN_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "remitapi"),
		},
		LLM: LLMConfig{
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:        getEnv("LLM_API_KEY", ""),
			Model:         getEnv("LLM_MODEL", "gpt-4o-mini"),
			Temperature:   getEnvFloat("LLM_TEMPERATURE", 0),
			MaxInputChars: getEnvInt("LLM_MAX_INPUT_CHARS", 4000),
		},
		Intake: IntakeConfig{
			MaxBytes: getEnvInt64("INTAKE_MAX_BYTES", 50<<20),
			MinBytes: getEnvInt("INTAKE_MIN_BYTES", 16),
			ClaimTTL: getEnvDuration("INTAKE_CLAIM_TTL", 10*time.Minute),
		},
		Pipeline: PipelineConfig{
			MinTextChars:       getEnvInt("MIN_TEXT_CHARS", 50),
			MinBlockChars:      getEnvInt("MIN_BLOCK_CHARS", 50),
			MatchThreshold:     getEnvFloat("MATCH_THRESHOLD", 0.6),
			FallbackConfidence: getEnvInt("FALLBACK_CONFIDENCE", 60),
			ExtractConcurrency: getEnvInt("EXTRACT_CONCURRENCY", 3),
			ExtractTimeout:     getEnvDuration("EXTRACT_TIMEOUT", 60*time.Second),
			ProcessOnUpload:    getEnvBool("PROCESS_ON_UPLOAD", true),
		},
		Scheduler: SchedulerConfig{
			Enabled:    getEnvBool("SCHEDULER_ENABLED", true),
			Interval:   getEnvDuration("SCHEDULER_INTERVAL", time.Minute),
			BatchSize:  getEnvInt("SCHEDULER_BATCH_SIZE", 20),
			Workers:    getEnvInt("SCHEDULER_WORKERS", 4),
			MaxRetries: getEnvInt("SCHEDULER_MAX_RETRIES", 3),
			RetryDelay: getEnvDuration("SCHEDULER_RETRY_DELAY", 5*time.Minute),
			JobTimeout: getEnvDuration("SCHEDULER_JOB_TIMEOUT", 10*time.Minute),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "5m") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
