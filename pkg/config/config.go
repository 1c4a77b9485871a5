package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	LogLevel    string
	Catalog     CatalogConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Classifier  ClassifierConfig
	Recognition RecognitionConfig
	Telemetry   TelemetryConfig
	OTEL        OTELConfig
}

// CatalogConfig holds configuration provider settings
type CatalogConfig struct {
	PrimaryEnabled  bool
	FallbackEnabled bool
	DocumentPath    string
	PublishStatus   string
	CacheTTL        time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ClassifierConfig holds classifier model references and the match threshold
type ClassifierConfig struct {
	ModelURL            string
	MetadataURL         string
	InferenceURL        string
	ConfidenceThreshold float64
	RequestTimeout      time.Duration
}

// RecognitionConfig holds recognition state machine settings
type RecognitionConfig struct {
	ThrottleInterval time.Duration
}

// TelemetryConfig holds analytics settings
type TelemetryConfig struct {
	Enabled       bool
	Batching      bool
	FlushInterval time.Duration
	MaxQueue      int
	Transport     string
	Endpoint      string
	APIKey        string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Catalog: CatalogConfig{
			PrimaryEnabled:  getEnvAsBool("FEATURE_PRIMARY_BACKEND", false),
			FallbackEnabled: getEnvAsBool("FEATURE_FALLBACK", true),
			DocumentPath:    getEnv("CATALOG_DOCUMENT_PATH", "config/products.json"),
			PublishStatus:   getEnv("CATALOG_PUBLISH_STATUS", "published"),
			CacheTTL:        getEnvAsMillis("CATALOG_CACHE_TTL_MS", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "productar"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Classifier: ClassifierConfig{
			ModelURL:            getEnv("CLASSIFIER_MODEL_URL", ""),
			MetadataURL:         getEnv("CLASSIFIER_METADATA_URL", ""),
			InferenceURL:        getEnv("CLASSIFIER_INFERENCE_URL", ""),
			ConfidenceThreshold: getEnvAsFloat("CLASSIFIER_CONFIDENCE_THRESHOLD", 0.70),
			RequestTimeout:      getEnvAsMillis("CLASSIFIER_TIMEOUT_MS", 10*time.Second),
		},
		Recognition: RecognitionConfig{
			ThrottleInterval: getEnvAsMillis("RECOGNITION_THROTTLE_MS", 500*time.Millisecond),
		},
		Telemetry: TelemetryConfig{
			Enabled:       getEnvAsBool("TELEMETRY_ENABLED", true),
			Batching:      getEnvAsBool("TELEMETRY_BATCHING", true),
			FlushInterval: getEnvAsMillis("TELEMETRY_FLUSH_INTERVAL_MS", 10*time.Second),
			MaxQueue:      getEnvAsInt("TELEMETRY_MAX_QUEUE", 500),
			Transport:     getEnv("TELEMETRY_TRANSPORT", "log"),
			Endpoint:      getEnv("TELEMETRY_ENDPOINT", ""),
			APIKey:        getEnv("TELEMETRY_API_KEY", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "productar"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Classifier.ConfidenceThreshold < 0 || c.Classifier.ConfidenceThreshold > 1 {
		return fmt.Errorf("CLASSIFIER_CONFIDENCE_THRESHOLD must be within [0,1], got %v", c.Classifier.ConfidenceThreshold)
	}
	if c.Recognition.ThrottleInterval < 0 {
		return fmt.Errorf("RECOGNITION_THROTTLE_MS must not be negative")
	}
	switch c.Telemetry.Transport {
	case "log", "http", "postgres":
	default:
		return fmt.Errorf("unknown TELEMETRY_TRANSPORT %q", c.Telemetry.Transport)
	}
	if c.Telemetry.Transport == "http" && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("TELEMETRY_ENDPOINT is required for the http transport")
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvAsMillis reads an integer millisecond count
func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
