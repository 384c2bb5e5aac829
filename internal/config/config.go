package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port            string
	DatabaseURL     string
	GeminiAPIKey    string
	GeminiModel     string
	AllowedOrigins  []string
	GCSBucket       string
	BigQueryProject string
	BigQueryDataset string
	NotionToken     string
	NotionDBID      string
	LogLevel        string
}

// DefaultGeminiModel is the model used when GEMINI_MODEL is unset.
const DefaultGeminiModel = "gemini-2.5-flash"

// Load reads configuration from a .env file, if present, and the environment.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     NormalizeDatabaseURL(getEnv("DB_URL", "")),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", DefaultGeminiModel),
		AllowedOrigins:  ParseOrigins(getEnv("FRONTEND_URL", "")),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		BigQueryProject: getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset: getEnv("BIGQUERY_DATASET", "finance"),
		NotionToken:     getEnv("NOTION_TOKEN", ""),
		NotionDBID:      getEnv("NOTION_DATABASE_ID", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// ParseOrigins accepts either a comma separated list or a bracketed list such
// as "[http://a.com, 'http://b.com']". Empty input yields nil.
func ParseOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	var origins []string
	for _, part := range strings.Split(raw, ",") {
		o := strings.Trim(strings.TrimSpace(part), `"'`)
		if o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return origins
}

// NormalizeDatabaseURL strips surrounding whitespace and quotes that often
// sneak into .env values.
func NormalizeDatabaseURL(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"'`)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
