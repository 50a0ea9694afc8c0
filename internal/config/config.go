package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultPort        = "8000"
)

// DefaultAllowedOrigins are the local front-end dev server addresses.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// Config is loaded once at startup and treated as read-only afterwards.
type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Gemini AI
	GeminiAPIKey string
	GeminiModel  string
	RetryBackoff time.Duration

	// CORS
	AllowedOrigins []string
}

// Load reads the optional env files (".env" when none are given) and then
// the process environment. It fails when GEMINI_API_KEY is not set.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	apiKey, err := requireEnv("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", DefaultPort),
		Env:            getEnvOrDefault("ENV", "development"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		GeminiAPIKey:   apiKey,
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		RetryBackoff:   getEnvAsDurationOrDefault("GEMINI_RETRY_BACKOFF", 0),
		AllowedOrigins: getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins),
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return val, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// getEnvAsDurationOrDefault accepts Go durations ("250ms") or a bare
// number of milliseconds. Negative values fall back to the default.
func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		if d < 0 {
			return defaultVal
		}
		return d
	}
	ms := getEnvAsIntOrDefault(key, -1)
	if ms < 0 {
		return defaultVal
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return out
}
