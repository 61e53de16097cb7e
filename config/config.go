// Package config loads duotext settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaguanLabs/duotext"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// FileName is the default config file name.
const FileName = "duotext.toml"

// Config is the whole configuration file.
type Config struct {
	Translation TranslationConfig `toml:"translation" json:"translation"`
	Provider    ProviderConfig    `toml:"provider" json:"provider"`
	Cache       CacheConfig       `toml:"cache" json:"cache"`
	Engine      EngineConfig      `toml:"engine" json:"engine"`
	Server      ServerConfig      `toml:"server" json:"server"`
	Log         LogConfig         `toml:"log" json:"log"`
}

type TranslationConfig struct {
	TargetLang    string            `toml:"target_lang" json:"target_lang"`
	SourceLang    string            `toml:"source_lang" json:"source_lang"`
	Placement     string            `toml:"placement" json:"placement"`
	Style         string            `toml:"style" json:"style"`
	Context       string            `toml:"context,omitempty" json:"context,omitempty"`
	ExcludedTerms []string          `toml:"excluded_terms,omitempty" json:"excluded_terms,omitempty"`
	Glossary      map[string]string `toml:"glossary,omitempty" json:"glossary,omitempty"`
}

type ProviderConfig struct {
	APIKey            string  `toml:"api_key,omitempty" json:"-"`
	BaseURL           string  `toml:"base_url,omitempty" json:"base_url,omitempty"`
	Model             string  `toml:"model" json:"model"`
	Temperature       float32 `toml:"temperature" json:"temperature"`
	RequestsPerMinute int     `toml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int     `toml:"max_retries" json:"max_retries"`
}

type CacheConfig struct {
	TTLSeconds int    `toml:"ttl_seconds" json:"ttl_seconds"`
	RedisURL   string `toml:"redis_url,omitempty" json:"redis_url,omitempty"`
	KeyPrefix  string `toml:"key_prefix" json:"key_prefix"`
}

type EngineConfig struct {
	Concurrency int    `toml:"concurrency" json:"concurrency"`
	BatchSize   int    `toml:"batch_size" json:"batch_size"`
	BusyPolicy  string `toml:"busy_policy" json:"busy_policy"`
}

type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`
}

type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
}

// DefaultConfig returns the built-in defaults. The API key falls back to
// OPENAI_API_KEY.
func DefaultConfig() *Config {
	return &Config{
		Translation: TranslationConfig{
			TargetLang: "es_ES",
			SourceLang: "en",
			Placement:  duotext.PlacementBelow.String(),
			Style:      string(duotext.StyleNeutral),
		},
		Provider: ProviderConfig{
			APIKey:            os.Getenv("OPENAI_API_KEY"),
			Model:             "gpt-4o-mini",
			Temperature:       0.3,
			RequestsPerMinute: 60,
			MaxRetries:        3,
		},
		Cache: CacheConfig{
			TTLSeconds: 86400,
			KeyPrefix:  "duotext:",
		},
		Engine: EngineConfig{
			Concurrency: 4,
			BatchSize:   50,
			BusyPolicy:  duotext.BusyQueue.String(),
		},
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	// 0600: the file may hold an API key
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every enumerated and numeric setting and reports all
// problems at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Translation.TargetLang) == "" {
		errs = append(errs, errors.New("translation.target_lang is required"))
	}
	if _, err := duotext.ParsePlacement(c.Translation.Placement); err != nil {
		errs = append(errs, fmt.Errorf("translation.placement: %w", err))
	}
	if !validStyle(c.Translation.Style) {
		errs = append(errs, fmt.Errorf("translation.style: unknown style %q", c.Translation.Style))
	}
	if c.Provider.Temperature < 0 || c.Provider.Temperature > 2 {
		errs = append(errs, fmt.Errorf("provider.temperature must be within [0, 2], got %v", c.Provider.Temperature))
	}
	if c.Provider.RequestsPerMinute < 0 || c.Provider.MaxRetries < 0 {
		errs = append(errs, errors.New("provider.requests_per_minute and provider.max_retries must not be negative"))
	}
	if c.Engine.Concurrency < 1 || c.Engine.BatchSize < 1 {
		errs = append(errs, errors.New("engine.concurrency and engine.batch_size must be at least 1"))
	}
	if _, err := duotext.ParseBusyPolicy(c.Engine.BusyPolicy); err != nil {
		errs = append(errs, fmt.Errorf("engine.busy_policy: %w", err))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func validStyle(s string) bool {
	switch duotext.TranslationStyle(s) {
	case duotext.StyleFormal, duotext.StyleNeutral, duotext.StyleCasual,
		duotext.StyleMarketing, duotext.StyleTechnical:
		return true
	}
	return false
}

// AnnotatorOptions turns the translation and engine sections into annotator
// options. Call Validate first; invalid enumerations fall back to defaults.
func (c *Config) AnnotatorOptions() []duotext.AnnotatorOption {
	placement, _ := duotext.ParsePlacement(c.Translation.Placement)
	busy, _ := duotext.ParseBusyPolicy(c.Engine.BusyPolicy)

	opts := []duotext.AnnotatorOption{
		duotext.WithSourceLang(c.Translation.SourceLang),
		duotext.WithPlacement(placement),
		duotext.WithStyle(duotext.TranslationStyle(c.Translation.Style)),
		duotext.WithConcurrency(c.Engine.Concurrency),
		duotext.WithBatchSize(c.Engine.BatchSize),
		duotext.WithBusyPolicy(busy),
	}
	if c.Translation.Context != "" {
		opts = append(opts, duotext.WithContext(c.Translation.Context))
	}
	if len(c.Translation.ExcludedTerms) > 0 {
		opts = append(opts, duotext.WithExcludedTerms(c.Translation.ExcludedTerms))
	}
	if len(c.Translation.Glossary) > 0 {
		opts = append(opts, duotext.WithGlossary(c.Translation.Glossary))
	}
	return opts
}

// NewLogger builds a logger writing to w at the configured level and format.
func (c LogConfig) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger, nil
}
