package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Encoding values accepted in API_ENCODING.
const (
	EncodingJSON = "json"
	EncodingForm = "form"
)

// Config holds the environment-driven defaults for the API client.
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
	Encoding  string
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, loading a .env file
// first when one is present. Environment variables take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		BaseURL:   os.Getenv("API_BASE_URL"),
		AuthToken: os.Getenv("API_AUTH_TOKEN"),
		Timeout:   10 * time.Second,
		Encoding:  EncodingJSON,
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}

	if v := os.Getenv("API_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid API_TIMEOUT_MS %q: %w", v, err)
		}
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}

	if v := os.Getenv("API_ENCODING"); v != "" {
		switch v {
		case EncodingJSON, EncodingForm:
			cfg.Encoding = v
		default:
			return nil, fmt.Errorf("invalid API_ENCODING %q, expected %q or %q", v, EncodingJSON, EncodingForm)
		}
	}

	return cfg, nil
}
