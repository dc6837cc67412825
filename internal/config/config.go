package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the pitchdesk daemon.
type Config struct {
	PollInterval time.Duration
	Database     DatabaseConfig
	HTTP         HTTPConfig
	AI           AIConfig
	Catalog      CatalogConfig
	Contact      ContactConfig
	Notification NotificationConfig
	Retry        RetryConfig
	Sources      []SourceConfig
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"` // empty disables authentication
}

// AIConfig controls the text generator used by the pipeline.
type AIConfig struct {
	Provider string        // "openai", "gemini" or "none"
	BaseURL  string        // OpenAI-compatible endpoint; defaults to api.openai.com
	Model    string        // e.g. "gpt-4o-mini" or "gemini-2.0-flash"
	APIKey   string        // expanded from env var by Load
	Timeout  time.Duration // per-request timeout
}

// CatalogConfig controls the app-catalog search used for portfolio examples.
type CatalogConfig struct {
	BaseURL    string
	RatePerSec float64
	Burst      int
	Timeout    time.Duration
}

// ContactConfig controls the contact lookup service.
type ContactConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RetryConfig controls retries of transient feed and generator failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// SourceConfig seeds a feed source on first start.
type SourceConfig struct {
	Name   string
	URL    string
	Active bool
}

const (
	defaultPollInterval = 10 * time.Minute
	defaultDBPath       = "pitchdesk.db"
	defaultAddr         = ":8080"
	defaultAITimeout    = 60 * time.Second
	defaultCatalogURL   = "http://localhost:3000"
	defaultContactURL   = "https://api.linkup.so"
	slackWebhookPrefix  = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	PollInterval string             `yaml:"poll_interval"`
	Database     DatabaseConfig     `yaml:"database"`
	HTTP         HTTPConfig         `yaml:"http"`
	AI           rawAIConfig        `yaml:"ai"`
	Catalog      rawCatalogConfig   `yaml:"catalog"`
	Contact      rawContactConfig   `yaml:"contact"`
	Notification NotificationConfig `yaml:"notification"`
	Retry        rawRetryConfig     `yaml:"retry"`
	Sources      []rawSourceConfig  `yaml:"sources"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawCatalogConfig struct {
	BaseURL    string  `yaml:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
	Timeout    string  `yaml:"timeout"`
}

type rawContactConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawSourceConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Active *bool  `yaml:"active"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := durationOr("poll_interval", raw.PollInterval, defaultPollInterval)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := durationOr("ai.timeout", raw.AI.Timeout, defaultAITimeout)
	if err != nil {
		return nil, err
	}
	catalogTimeout, err := durationOr("catalog.timeout", raw.Catalog.Timeout, 20*time.Second)
	if err != nil {
		return nil, err
	}
	contactTimeout, err := durationOr("contact.timeout", raw.Contact.Timeout, 60*time.Second)
	if err != nil {
		return nil, err
	}
	baseDelay, err := durationOr("retry.base_delay", raw.Retry.BaseDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}

	maxRetries := 3
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	sources := make([]SourceConfig, 0, len(raw.Sources))
	for _, s := range raw.Sources {
		active := true
		if s.Active != nil {
			active = *s.Active
		}
		sources = append(sources, SourceConfig{Name: s.Name, URL: s.URL, Active: active})
	}

	cfg := &Config{
		PollInterval: interval,
		Database: DatabaseConfig{
			Driver: orDefault(raw.Database.Driver, "sqlite"),
			DSN:    orDefault(raw.Database.DSN, defaultDBPath),
		},
		HTTP: HTTPConfig{
			Addr:   orDefault(raw.HTTP.Addr, defaultAddr),
			APIKey: raw.HTTP.APIKey,
		},
		AI: AIConfig{
			Provider: orDefault(strings.ToLower(raw.AI.Provider), "openai"),
			BaseURL:  raw.AI.BaseURL,
			Model:    raw.AI.Model,
			APIKey:   raw.AI.APIKey,
			Timeout:  aiTimeout,
		},
		Catalog: CatalogConfig{
			BaseURL:    orDefault(raw.Catalog.BaseURL, defaultCatalogURL),
			RatePerSec: raw.Catalog.RatePerSec,
			Burst:      raw.Catalog.Burst,
			Timeout:    catalogTimeout,
		},
		Contact: ContactConfig{
			BaseURL: orDefault(raw.Contact.BaseURL, defaultContactURL),
			APIKey:  raw.Contact.APIKey,
			Timeout: contactTimeout,
		},
		Notification: NotificationConfig{
			Type:       orDefault(raw.Notification.Type, "log"),
			WebhookURL: raw.Notification.WebhookURL,
		},
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
		Sources: sources,
	}
	if cfg.Catalog.RatePerSec == 0 {
		cfg.Catalog.RatePerSec = 2
	}
	if cfg.Catalog.Burst == 0 {
		cfg.Catalog.Burst = 2
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationOr(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", cfg.PollInterval)
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	switch cfg.AI.Provider {
	case "openai", "gemini":
		// An empty key disables generation; a key without a model is a mistake.
		if cfg.AI.APIKey != "" && cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.api_key is set")
		}
	case "none":
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}

	if cfg.Catalog.RatePerSec < 0 || cfg.Catalog.Burst < 0 {
		return fmt.Errorf("catalog.rate_per_sec and catalog.burst must not be negative")
	}
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	seen := make(map[string]bool)
	for i, s := range cfg.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("sources[%d]: name and url are required", i)
		}
		if seen[s.URL] {
			return fmt.Errorf("sources[%d]: duplicate url %q", i, s.URL)
		}
		seen[s.URL] = true
	}

	return nil
}
