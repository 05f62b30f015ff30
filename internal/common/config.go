package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds configuration for the vendor-memory store backend.
// An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Languages   string // tesseract language pack spec, default "deu+eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// PipelineConfig holds orchestration knobs.
type PipelineConfig struct {
	RecognitionTimeout time.Duration // bound on a single OCR/barcode call
	DefaultCurrency    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Languages:   getEnv("TESSERACT_LANG", "deu+eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("TESSERACT_PSM", 0),
			OEM:         getEnvAsInt("TESSERACT_OEM", 0),
		},
		Pipeline: PipelineConfig{
			RecognitionTimeout: getEnvAsDuration("RECOGNITION_TIMEOUT", 30*time.Second),
			DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "CHF"),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.Tesseract == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_BIN must not be empty", ErrInvalidInput)
	}
	if c.Pipeline.RecognitionTimeout <= 0 {
		return NewAppError("CONFIG_ERROR", "RECOGNITION_TIMEOUT must be positive", ErrInvalidInput)
	}
	return nil
}
