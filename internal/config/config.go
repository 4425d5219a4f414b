// Package config holds the runtime settings of potsdam-status.
//
// Settings come from built-in defaults, an optional YAML file, environment
// variables and finally command-line flags, each layer overriding the last.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pfrederiksen/potsdam-status/internal/ledger"
	"github.com/pfrederiksen/potsdam-status/internal/logger"
	"github.com/pfrederiksen/potsdam-status/internal/scraper"
)

// DefaultFile is read when no --config flag is given; it may be absent.
const DefaultFile = "potsdam-status.yaml"

// Environment variables that override file settings.
const (
	EnvURL      = "POTSDAM_STATUS_URL"
	EnvCSV      = "POTSDAM_STATUS_CSV"
	EnvLogLevel = "POTSDAM_STATUS_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvURL); ok && v != "" {
		c.Source.URL = v
	}
	if v, ok := lookup(EnvCSV); ok && v != "" {
		c.Ledger.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// SourceConfig describes where and how the status page is fetched.
type SourceConfig struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required, validation.By(httpURL)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// LedgerConfig holds the CSV ledger location and its change detection columns.
type LedgerConfig struct {
	Path string `yaml:"path"`

	// CompareColumns are zero-based column indexes. Empty means every column
	// except retrieved_at.
	CompareColumns []int `yaml:"compare_columns"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.CompareColumns,
			validation.Length(0, len(ledger.Header)),
			validation.Each(validation.Min(0), validation.Max(len(ledger.Header)-1)),
		),
	)
}

// Options returns the ledger options for this configuration.
func (c *LedgerConfig) Options() []ledger.Option {
	if len(c.CompareColumns) == 0 {
		return nil
	}
	return []ledger.Option{ledger.WithCompareColumns(c.CompareColumns...)}
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.Required, validation.By(func(value interface{}) error {
			_, err := logger.ParseLevel(value.(string))
			return err
		})),
	)
}

// ParsedLevel returns the configured level, falling back to WARN.
func (c *LogConfig) ParsedLevel() logger.Level {
	level, err := logger.ParseLevel(c.Level)
	if err != nil {
		return logger.LevelWarn
	}
	return level
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:       scraper.StatusPageURL,
			Timeout:   scraper.Timeout,
			UserAgent: scraper.UserAgent,
		},
		Ledger: LedgerConfig{
			Path: ledger.DefaultPath,
		},
		Log: LogConfig{
			Level: strings.ToLower(string(logger.LevelWarn)),
		},
	}
}

func httpURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
