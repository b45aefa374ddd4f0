package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Identity
	UserID string // Opaque id of the collection owner

	// Gemini
	GeminiAPIKey         string
	GeminiModel          string
	GeminiBaseURL        string
	GeminiTimeoutSeconds int

	// Enrichment
	EnrichmentCacheMinutes int // How long a parsed title stays cached (default: 30)

	// Sync
	ResyncIntervalMinutes int // Minutes between forced full snapshots (default: 5)

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/cinearchive.db

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	v.SetDefault("USER_ID", "local")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("GEMINI_TIMEOUT_SECONDS", 30)
	v.SetDefault("ENRICHMENT_CACHE_MINUTES", 30)
	v.SetDefault("RESYNC_INTERVAL_MINUTES", 5)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "cinearchive")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		UserID: v.GetString("USER_ID"),

		GeminiAPIKey:         v.GetString("GEMINI_API_KEY"),
		GeminiModel:          v.GetString("GEMINI_MODEL"),
		GeminiBaseURL:        v.GetString("GEMINI_BASE_URL"),
		GeminiTimeoutSeconds: v.GetInt("GEMINI_TIMEOUT_SECONDS"),

		EnrichmentCacheMinutes: v.GetInt("ENRICHMENT_CACHE_MINUTES"),
		ResyncIntervalMinutes:  v.GetInt("RESYNC_INTERVAL_MINUTES"),

		ServerPort: v.GetString("SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "cinearchive.db"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the fields every command depends on
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("USER_ID is required")
	}
	if c.GeminiTimeoutSeconds <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive")
	}
	if c.EnrichmentCacheMinutes < 0 {
		return fmt.Errorf("ENRICHMENT_CACHE_MINUTES must not be negative")
	}
	if c.ResyncIntervalMinutes <= 0 {
		return fmt.Errorf("RESYNC_INTERVAL_MINUTES must be positive")
	}
	return nil
}
