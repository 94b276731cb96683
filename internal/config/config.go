package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ParamPrefix marks environment variables that supply ${name} placeholders.
const ParamPrefix = "PARSEGEST_PARAM_"

type Config struct {
	Port string

	// Auth
	APIKey string

	// Sources: a local directory, a remote resource service, or both.
	ResourceRoot         string
	RemoteResourceURL    string
	RemoteResourceAPIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// SQL execution
	SQLDriver        string
	SQLDSN           string
	SQLDelimiter     string
	SQLStripComments bool

	// PDF
	PDFFallbackPdftotext bool

	LogLevel slog.Level
}

// LoadDotEnv reads variables from files (".env" when none are given) into
// the environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PARSEGEST_API_KEY"),

		ResourceRoot:         envOr("RESOURCE_ROOT", "."),
		RemoteResourceURL:    os.Getenv("REMOTE_RESOURCE_URL"),
		RemoteResourceAPIKey: os.Getenv("REMOTE_RESOURCE_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		SQLDriver:        os.Getenv("SQL_DRIVER"),
		SQLDSN:           envOr("SQL_DSN", ":memory:"),
		SQLDelimiter:     os.Getenv("SQL_DELIMITER"),
		SQLStripComments: envBool("SQL_STRIP_COMMENTS", true),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PARSEGEST_API_KEY is required")
	}
	if c.RemoteResourceURL != "" && c.RemoteResourceAPIKey == "" {
		return fmt.Errorf("REMOTE_RESOURCE_API_KEY is required when REMOTE_RESOURCE_URL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.ToUpper(v))); err == nil {
			return l
		}
	}
	return fallback
}
