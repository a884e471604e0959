package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Storage     StorageConfig    `toml:"storage"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Fallback    FallbackConfig   `toml:"fallback"`
	Janitor     JanitorConfig    `toml:"janitor"`
	Logging     LoggingConfig    `toml:"logging"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Pages string `toml:"pages" validate:"required"` // Root directory for rasterized page artifacts, namespaced per document
}

// ExtractionConfig holds default rasterization options for conversions.
type ExtractionConfig struct {
	Format  string `toml:"format" validate:"oneof=png jpg"`
	DPI     int    `toml:"dpi" validate:"gte=72,lte=1200"`
	Quality int    `toml:"quality" validate:"gte=1,lte=100"`
}

// FallbackSlide is one placeholder slide served when conversion fails.
type FallbackSlide struct {
	Title    string `toml:"title"`
	ImageRef string `toml:"image_ref"`
}

// FallbackConfig parameterizes the deck served when extraction is
// unavailable. Content-agnostic placeholders by default; deployments may
// override with their own assets.
type FallbackConfig struct {
	Slides []FallbackSlide `toml:"slides"`
}

// JanitorConfig controls scheduled pruning of stale conversion records.
type JanitorConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	MaxAge   string `toml:"max_age"`  // Duration string, e.g. "720h"
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Pages: "./data/pages",
			},
		},
		Extraction: ExtractionConfig{
			Format:  "png",
			DPI:     150,
			Quality: 90,
		},
		Fallback: FallbackConfig{
			Slides: DefaultFallbackSlides(),
		},
		Janitor: JanitorConfig{
			Enabled:  false,       // Disabled by default - user must explicitly opt-in
			Schedule: "0 0 * * *", // Daily at midnight
			MaxAge:   "720h",      // 30 days
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration from a single file path.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 ->
// file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("DETAILER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Storage configuration
	if badgerPath := os.Getenv("DETAILER_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if pagesDir := os.Getenv("DETAILER_PAGES_DIR"); pagesDir != "" {
		config.Storage.Filesystem.Pages = pagesDir
	}

	// Extraction configuration
	if format := os.Getenv("DETAILER_EXTRACTION_FORMAT"); format != "" {
		config.Extraction.Format = format
	}
	if dpi := os.Getenv("DETAILER_EXTRACTION_DPI"); dpi != "" {
		if d, err := strconv.Atoi(dpi); err == nil {
			config.Extraction.DPI = d
		}
	}
	if quality := os.Getenv("DETAILER_EXTRACTION_QUALITY"); quality != "" {
		if q, err := strconv.Atoi(quality); err == nil {
			config.Extraction.Quality = q
		}
	}

	// Janitor configuration
	if enabled := os.Getenv("DETAILER_JANITOR_ENABLED"); enabled != "" {
		config.Janitor.Enabled = enabled == "true" || enabled == "1"
	}
	if schedule := os.Getenv("DETAILER_JANITOR_SCHEDULE"); schedule != "" {
		config.Janitor.Schedule = schedule
	}
	if maxAge := os.Getenv("DETAILER_JANITOR_MAX_AGE"); maxAge != "" {
		config.Janitor.MaxAge = maxAge
	}

	// Logging configuration
	if level := os.Getenv("DETAILER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("DETAILER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("DETAILER_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// Validate checks structural constraints and the janitor cron schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Janitor.Enabled {
		if err := ValidateSchedule(c.Janitor.Schedule); err != nil {
			return err
		}
	}

	return nil
}

// ValidateSchedule validates a cron schedule expression (5-field standard
// format).
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
