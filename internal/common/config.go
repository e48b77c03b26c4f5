package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	POP     POPConfig
	LLM     LLMConfig
	Docs    DocsConfig
	Sheet   SheetConfig
	Journal JournalConfig
	LogDir  string
}

// POPConfig holds Page Optimizer Pro report API configuration
type POPConfig struct {
	APIKey         string
	BaseURL        string
	LocationName   string
	TargetURL      string
	TargetLanguage string
	PollTimeout    time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	Persona     string
}

// DocsConfig holds document-store configuration
type DocsConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

// SheetConfig holds source-spreadsheet configuration
type SheetConfig struct {
	Path string
}

// JournalConfig holds run-journal configuration. An empty Path disables the journal.
type JournalConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		POP: POPConfig{
			APIKey:         getEnv("POP_API_KEY", ""),
			BaseURL:        getEnv("POP_BASE_URL", "https://app.pageoptimizer.pro"),
			LocationName:   getEnv("POP_LOCATION_NAME", "United Kingdom"),
			TargetURL:      getEnv("POP_TARGET_URL", "https://example.com"),
			TargetLanguage: getEnv("POP_TARGET_LANGUAGE", "english"),
			PollTimeout:    getEnvAsDuration("POLL_TIMEOUT", 20*time.Minute),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			Persona:     getEnv("ARTICLE_PERSONA", "You are a British skincare expert."),
		},
		Docs: DocsConfig{
			BaseURL:     getEnv("DOCS_BASE_URL", "https://docs.googleapis.com"),
			AccessToken: getEnv("GOOGLE_OAUTH_TOKEN", ""),
			Timeout:     getEnvAsDuration("DOCS_TIMEOUT", 30*time.Second),
		},
		Sheet: SheetConfig{
			Path: getEnv("SHEET_PATH", ""),
		},
		Journal: JournalConfig{
			Path: getEnv("JOURNAL_PATH", ""),
		},
		LogDir: getEnv("LOG_DIR", "."),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.POP.APIKey == "" {
		return NewAppError(CodeConfig, "POP_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Docs.AccessToken == "" {
		return NewAppError(CodeConfig, "GOOGLE_OAUTH_TOKEN is required", ErrInvalidInput)
	}
	if c.Sheet.Path == "" {
		return NewAppError(CodeConfig, "SHEET_PATH is required", ErrInvalidInput)
	}
	return nil
}
