package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Darkseer  DarkseerConfig  `yaml:"darkseer"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Stratz    StratzConfig    `yaml:"stratz"`
	Processor ProcessorConfig `yaml:"processor"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type DarkseerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	RawBuffer        int `yaml:"raw_buffer"`
	NormalizedBuffer int `yaml:"normalized_buffer"`
	IncompleteBuffer int `yaml:"incomplete_buffer"`
}

type StratzConfig struct {
	URL         string          `yaml:"url"`
	BearerToken string          `yaml:"bearer_token"`
	BatchSize   int             `yaml:"batch_size"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Retry       RetryConfig     `yaml:"retry"`
}

type RateLimitConfig struct {
	HourTokens        int `yaml:"hour_tokens"`
	HourTokensAuthed  int `yaml:"hour_tokens_authed"`
	MinuteTokens      int `yaml:"minute_tokens"`
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

type ProcessorConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level          string        `yaml:"level"`
	Format         string        `yaml:"format"`
	Output         string        `yaml:"output"`
	MaxAge         int           `yaml:"max_age"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

func LoadConfig(path string) (*Config, error) {
	// Read configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// The bearer token is a secret; the environment always wins over the file.
	if v := os.Getenv("STRATZ_TOKEN"); v != "" {
		config.Stratz.BearerToken = strings.TrimSpace(v)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Stratz.URL == "" {
		cfg.Stratz.URL = "https://api.stratz.com/graphql"
	}
	if cfg.Stratz.BatchSize <= 0 {
		// The match-detail query is expensive upstream; small chunks keep
		// a single query's cost bounded.
		cfg.Stratz.BatchSize = 10
	}
	if cfg.Stratz.RateLimit.HourTokens <= 0 {
		cfg.Stratz.RateLimit.HourTokens = 300
	}
	if cfg.Stratz.RateLimit.HourTokensAuthed <= 0 {
		cfg.Stratz.RateLimit.HourTokensAuthed = 500
	}
	if cfg.Stratz.RateLimit.MinuteTokens <= 0 {
		cfg.Stratz.RateLimit.MinuteTokens = 150
	}
	if cfg.Stratz.RateLimit.RequestsPerSecond <= 0 {
		cfg.Stratz.RateLimit.RequestsPerSecond = 20
	}
	if cfg.Stratz.RateLimit.BurstSize <= 0 {
		cfg.Stratz.RateLimit.BurstSize = 1
	}
	if cfg.Stratz.Retry.MaxAttempts <= 0 {
		cfg.Stratz.Retry.MaxAttempts = 5
	}
	if cfg.Stratz.Retry.BaseDelay <= 0 {
		cfg.Stratz.Retry.BaseDelay = time.Second
	}
	if cfg.Stratz.Retry.MaxDelay <= 0 {
		cfg.Stratz.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Channels.RawBuffer <= 0 {
		cfg.Channels.RawBuffer = 100
	}
	if cfg.Channels.NormalizedBuffer <= 0 {
		cfg.Channels.NormalizedBuffer = 100
	}
	if cfg.Channels.IncompleteBuffer <= 0 {
		cfg.Channels.IncompleteBuffer = 100
	}
	if cfg.Processor.MaxWorkers <= 0 {
		cfg.Processor.MaxWorkers = 4
	}
	if cfg.Logging.ReportInterval <= 0 {
		cfg.Logging.ReportInterval = 30 * time.Second
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Darkseer.Name == "" {
		return fmt.Errorf("darkseer.name is required")
	}

	if cfg.Darkseer.Version == "" {
		return fmt.Errorf("darkseer.version is required")
	}

	if !strings.HasPrefix(cfg.Stratz.URL, "http://") && !strings.HasPrefix(cfg.Stratz.URL, "https://") {
		return fmt.Errorf("stratz.url '%s' is not a valid http(s) URL", cfg.Stratz.URL)
	}

	if cfg.Stratz.RateLimit.HourTokensAuthed < cfg.Stratz.RateLimit.HourTokens {
		return fmt.Errorf("stratz.rate_limit.hour_tokens_authed must not be lower than hour_tokens")
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	return nil
}
