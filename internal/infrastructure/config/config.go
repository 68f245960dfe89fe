// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	geminiKey := cfg.GetAPIKey(cfg.Extraction.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Matching      MatchingConfig      `yaml:"matching"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Parser        ParserConfig        `yaml:"parser"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MatchingConfig overrides the matcher defaults. Zero values keep the defaults.
type MatchingConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
	MinScore      int `yaml:"min_score"`
	Workers       int `yaml:"workers"`
}

// ReconcileConfig holds auto-reconcile settings
type ReconcileConfig struct {
	AutoMinScore int `yaml:"auto_min_score"`
}

// ParserConfig holds CSV parser settings
type ParserConfig struct {
	Delimiter string `yaml:"delimiter"`
}

// DelimiterRune returns the configured delimiter, or ',' when unset or not a single character.
func (p ParserConfig) DelimiterRune() rune {
	if p.Delimiter == `\t` || p.Delimiter == "tab" {
		return '\t'
	}
	if utf8.RuneCountInString(p.Delimiter) != 1 {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(p.Delimiter)
	return r
}

// ExtractionConfig holds the AI statement extraction settings
type ExtractionConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call extraction timeout.
func (e ExtractionConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${GEMINI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			DatabasePath: "reconciler.db",
		},
		Server: ServerConfig{
			Port:           8085,
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Reconcile: ReconcileConfig{
			AutoMinScore: 100,
		},
		Parser: ParserConfig{
			Delimiter: ",",
		},
		Extraction: ExtractionConfig{
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 60,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Namespace: "reconciler",
			},
		},
	}
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Defaults()

	cfg.Storage.DatabasePath = getEnv("RECONCILER_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Server.Port = getEnvInt("RECONCILER_PORT", cfg.Server.Port)
	if origins := os.Getenv("RECONCILER_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	cfg.Matching = MatchingConfig{
		MaxCandidates: getEnvInt("RECONCILER_MAX_CANDIDATES", 0),
		MinScore:      getEnvInt("RECONCILER_MIN_SCORE", 0),
		Workers:       getEnvInt("RECONCILER_WORKERS", 0),
	}
	cfg.Reconcile.AutoMinScore = getEnvInt("RECONCILER_AUTO_MIN_SCORE", cfg.Reconcile.AutoMinScore)
	cfg.Parser.Delimiter = getEnv("RECONCILER_DELIMITER", cfg.Parser.Delimiter)
	cfg.Extraction = ExtractionConfig{
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		Model:          getEnv("GEMINI_MODEL", cfg.Extraction.Model),
		TimeoutSeconds: getEnvInt("GEMINI_TIMEOUT_SECONDS", cfg.Extraction.TimeoutSeconds),
	}
	cfg.Observability.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}
	cfg.Observability.Metrics.Enabled = getEnv("METRICS_ENABLED", "true") != "false"
	cfg.Observability.Metrics.Namespace = getEnv("METRICS_NAMESPACE", cfg.Observability.Metrics.Namespace)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.Extraction.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	// First, try the config value
	if configValue != "" {
		return configValue
	}

	// Then try each environment variable in order
	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
