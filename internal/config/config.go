package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aeva/whisperscope/internal/comment"
	"github.com/Aeva/whisperscope/internal/convert"
	"github.com/Aeva/whisperscope/internal/docs"
)

// DefaultFile is read when no configuration path is given. Its absence is
// not an error.
const DefaultFile = "docshound.yaml"

// Config is the docshound configuration file.
type Config struct {
	// Marker flags a comment for export when it starts the first line.
	Marker     string         `yaml:"marker"`
	Extensions []string       `yaml:"extensions"`
	Syntax     comment.Syntax `yaml:"syntax"`
	Render     RenderConfig   `yaml:"render"`
	Convert    ConvertConfig  `yaml:"convert"`
	Build      BuildConfig    `yaml:"build"`
	Events     EventsConfig   `yaml:"events"`
	Watch      WatchConfig    `yaml:"watch"`
}

// RenderConfig controls how fragments become reStructuredText.
type RenderConfig struct {
	Style          docs.Style       `yaml:"style"`
	Directive      string           `yaml:"directive"`
	IndexTitle     string           `yaml:"index_title"`
	MaxDepth       int              `yaml:"max_depth"`
	OnConvertError docs.ErrorPolicy `yaml:"on_convert_error"`
}

// ConvertConfig selects the markdown converter.
type ConvertConfig struct {
	Backend    convert.Backend `yaml:"backend"`
	PandocPath string          `yaml:"pandoc_path"`
	Timeout    time.Duration   `yaml:"timeout"`
}

// BuildConfig tunes a generation run.
type BuildConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
	// Cache is the render cache database. Empty disables caching.
	Cache       string `yaml:"cache"`
	MetricsFile string `yaml:"metrics_file"`
}

// EventsConfig enables publishing a message after each run.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	Resync   time.Duration `yaml:"resync"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Marker:     docs.DefaultMarker,
		Extensions: []string{".js"},
		Syntax:     comment.CStyle,
		Render: RenderConfig{
			Style:          docs.StyleSection,
			Directive:      docs.DefaultDirective,
			IndexTitle:     docs.DefaultIndexTitle,
			MaxDepth:       docs.DefaultMaxDepth,
			OnConvertError: docs.PolicySkip,
		},
		Convert: ConvertConfig{
			Backend:    convert.BackendPandoc,
			PandocPath: "pandoc",
			Timeout:    30 * time.Second,
		},
		Build: BuildConfig{
			Cache: ".docshound-cache.db",
		},
		Events: EventsConfig{
			Subject: "docshound.generated",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			Resync:   10 * time.Minute,
		},
	}
}

// Load reads the configuration at path over the defaults. An empty path, or
// a missing DefaultFile, yields the defaults; any other missing file is an
// error. Environment variables from .env files are loaded first and ${VAR}
// references in the file are expanded.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
			slog.Debug("No configuration file, using defaults", "path", path)
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("configuration file not found: %s", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ConverterOptions returns the options for convert.New.
func (c *Config) ConverterOptions() convert.Options {
	return convert.Options{
		Backend:    c.Convert.Backend,
		PandocPath: c.Convert.PandocPath,
		Timeout:    c.Convert.Timeout,
	}
}
