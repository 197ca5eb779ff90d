// Package config reads roomie settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/neomorfeo/roomie/internal/adapter/otel"
)

// Config holds every setting of the server and the console.
type Config struct {
	// Server
	Port         string
	DatabasePath string
	JWTSecret    string
	SessionTTL   time.Duration
	Queue        bool

	// Console
	APIURL      string
	HTTPTimeout time.Duration
	SessionPoll time.Duration

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"

	Telemetry otel.Config
}

// Load reads a .env file when one exists and then the environment. Values
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds Config from environment variables with sensible defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:         envOrDefault("PORT", "8080"),
		DatabasePath: envOrDefault("DATABASE_PATH", "roomie.db"),
		JWTSecret:    os.Getenv("ROOMIE_JWT_SECRET"),
		APIURL:       envOrDefault("ROOMIE_API_URL", "http://localhost:8080"),
		LogFormat:    strings.ToLower(envOrDefault("LOG_FORMAT", "text")),
		Telemetry:    otel.ConfigFromEnv(),
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("ROOMIE_SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationOrDefault("ROOMIE_HTTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionPoll, err = durationOrDefault("ROOMIE_SESSION_POLL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Queue, err = strconv.ParseBool(envOrDefault("ROOMIE_QUEUE", "true")); err != nil {
		return Config{}, fmt.Errorf("ROOMIE_QUEUE: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("LOG_FORMAT: unsupported format %q (use \"text\" or \"json\")", cfg.LogFormat)
	}

	return cfg, nil
}

// Logger builds the process logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
