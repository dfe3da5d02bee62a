package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/client"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration for the dashboard
type Config struct {
	Env       string          `yaml:"env" env:"APP_ENV" env-default:"local"`
	Log       LogConfig       `yaml:"log"`
	Redmine   RedmineConfig   `yaml:"redmine"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Server    ServerConfig    `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RedmineConfig holds upstream API settings. Durations are in seconds
// unless the field name says otherwise.
type RedmineConfig struct {
	BaseURL            string  `yaml:"url" env:"REDMINE_URL"`
	APIKey             string  `yaml:"api_key" env:"REDMINE_API_KEY"`
	Timeout            int     `yaml:"timeout" env:"REQUEST_TIMEOUT" env-default:"30"`
	VerifySSL          bool    `yaml:"verify_ssl" env:"REDMINE_VERIFY_SSL" env-default:"true"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" env:"RATE_LIMIT_PER_SECOND" env-default:"10"`
	RateLimitBurst     int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST" env-default:"30"`
	RetryDelayMs       int     `yaml:"retry_delay_ms" env:"RETRY_DELAY_MS" env-default:"1000"`
	CacheEnabled       bool    `yaml:"cache_enabled" env:"CACHE_ENABLED" env-default:"true"`
}

// CacheConfig overrides per-key TTLs (seconds). Zero keeps the client default.
type CacheConfig struct {
	ActivitiesTTL      int `yaml:"activities_ttl" env:"CACHE_TTL_ACTIVITIES"`
	IssueStatusesTTL   int `yaml:"issue_statuses_ttl" env:"CACHE_TTL_ISSUE_STATUSES"`
	IssuePrioritiesTTL int `yaml:"issue_priorities_ttl" env:"CACHE_TTL_ISSUE_PRIORITIES"`
	ProjectsTTL        int `yaml:"projects_ttl" env:"CACHE_TTL_PROJECTS"`
	UsersTTL           int `yaml:"users_ttl" env:"CACHE_TTL_USERS"`
}

type AuthConfig struct {
	SecretsFile string `yaml:"secrets_file" env:"SECRETS_FILE"`
	SessionTTL  int    `yaml:"session_ttl" env:"SESSION_TTL" env-default:"28800"`
}

type DashboardConfig struct {
	HourlyRate float64 `yaml:"hourly_rate" env:"HOURLY_RATE" env-default:"1650"`
	DataTTL    int     `yaml:"data_ttl" env:"CACHE_TTL" env-default:"300"`
}

type ServerConfig struct {
	Port         int `yaml:"port" env:"SERVER_PORT" env-default:"8501"`
	ReadTimeout  int `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15"`
	WriteTimeout int `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60"`
}

// LoadConfig reads the YAML file at path (if it exists) and then applies
// environment overrides. A .env file in the working directory is loaded
// first when present.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			return &cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings required to construct the API client
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Redmine.BaseURL) == "" {
		missing = append(missing, "REDMINE_URL")
	}
	if strings.TrimSpace(c.Redmine.APIKey) == "" {
		missing = append(missing, "REDMINE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Redmine.Timeout <= 0 {
		return fmt.Errorf("redmine timeout must be positive, got %d", c.Redmine.Timeout)
	}
	if c.Dashboard.HourlyRate < 0 {
		return fmt.Errorf("hourly rate must not be negative, got %v", c.Dashboard.HourlyRate)
	}
	return nil
}

// CacheTTLs returns the configured TTL overrides keyed by cache key
func (c *Config) CacheTTLs() map[string]time.Duration {
	ttls := make(map[string]time.Duration)
	set := func(key string, seconds int) {
		if seconds > 0 {
			ttls[key] = time.Duration(seconds) * time.Second
		}
	}
	set("activities", c.Cache.ActivitiesTTL)
	set("issue_statuses", c.Cache.IssueStatusesTTL)
	set("issue_priorities", c.Cache.IssuePrioritiesTTL)
	set("projects", c.Cache.ProjectsTTL)
	set("users", c.Cache.UsersTTL)
	return ttls
}

// ClientOptions converts the Redmine and cache sections to client options
func (c *Config) ClientOptions() client.Options {
	opts := client.DefaultOptions(c.Redmine.BaseURL, c.Redmine.APIKey)
	opts.Timeout = time.Duration(c.Redmine.Timeout) * time.Second
	opts.VerifySSL = c.Redmine.VerifySSL
	opts.RateLimitPerSecond = c.Redmine.RateLimitPerSecond
	opts.RateLimitBurst = c.Redmine.RateLimitBurst
	opts.RetryDelay = time.Duration(c.Redmine.RetryDelayMs) * time.Millisecond
	opts.CacheEnabled = c.Redmine.CacheEnabled
	opts.CacheTTL = c.CacheTTLs()
	return opts
}

// Usage returns the environment variable reference for --help output
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
