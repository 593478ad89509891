// Package config loads memfabric settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rcliao/memory-fabric/internal/embedding"
	"github.com/rcliao/memory-fabric/internal/validate"
)

// ErrInvalidConfig is returned when a setting cannot be parsed.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables read by Load.
const (
	EnvDB              = "MEMFABRIC_DB"
	EnvIndex           = "MEMFABRIC_INDEX"
	EnvEmbedProvider   = "MEMFABRIC_EMBED_PROVIDER"
	EnvEmbedModel      = "MEMFABRIC_EMBED_MODEL"
	EnvEmbedURL        = "MEMFABRIC_EMBED_URL"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"
	EnvLogLevel        = "MEMFABRIC_LOG_LEVEL"
	EnvMaxContentBytes = "MEMFABRIC_MAX_CONTENT_BYTES"
	EnvEmbedDimensions = "MEMFABRIC_EMBED_DIMENSIONS"
)

// Config holds resolved settings.
type Config struct {
	DBPath          string
	IndexPath       string
	Embed           embedding.Options
	LogLevel        slog.Level
	MaxContentBytes int   // 0 keeps the default ceiling
	EmbedDimensions []int // empty keeps the default set
}

// Load reads .env from the working directory if present, then the
// environment. Variables already set win over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrInvalidConfig, err)
	}
	return FromEnv()
}

// LoadFile is Load with an explicit env file, which must exist.
func LoadFile(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv()
}

// FromEnv resolves settings from the process environment only.
func FromEnv() (*Config, error) {
	home, _ := os.UserHomeDir()
	c := &Config{
		DBPath:    getEnvOrDefault(EnvDB, filepath.Join(home, ".memfabric", "memory.db")),
		IndexPath: getEnvOrDefault(EnvIndex, filepath.Join(home, ".memfabric", "index")),
		Embed: embedding.Options{
			Provider: os.Getenv(EnvEmbedProvider),
			Model:    os.Getenv(EnvEmbedModel),
			URL:      os.Getenv(EnvEmbedURL),
			APIKey:   os.Getenv(EnvOpenAIKey),
		},
	}

	level, err := ParseLevel(getEnvOrDefault(EnvLogLevel, "warn"))
	if err != nil {
		return nil, err
	}
	c.LogLevel = level

	if v := os.Getenv(EnvMaxContentBytes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %s=%q must be a positive integer", ErrInvalidConfig, EnvMaxContentBytes, v)
		}
		c.MaxContentBytes = n
	}

	if v := os.Getenv(EnvEmbedDimensions); v != "" {
		for _, part := range strings.Split(v, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: %s=%q must be a comma-separated list of positive integers", ErrInvalidConfig, EnvEmbedDimensions, v)
			}
			c.EmbedDimensions = append(c.EmbedDimensions, n)
		}
	}

	switch c.Embed.Provider {
	case "", "openai":
	case "ollama":
		if c.Embed.URL == "" {
			c.Embed.URL = os.Getenv(EnvOllamaHost)
		}
	default:
		return nil, fmt.Errorf("%w: %s=%q (want ollama or openai)", ErrInvalidConfig, EnvEmbedProvider, c.Embed.Provider)
	}

	return c, nil
}

// Limits returns the validation limits this configuration selects.
func (c *Config) Limits() validate.Limits {
	l := validate.DefaultLimits()
	if c.MaxContentBytes > 0 {
		l.MaxContentBytes = c.MaxContentBytes
	}
	if len(c.EmbedDimensions) > 0 {
		l.EmbeddingDimensions = append([]int(nil), c.EmbedDimensions...)
	}
	return l
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return level, nil
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
