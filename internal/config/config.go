package config

import (
	"fmt"
	"os"
	"time"

	"github.com/elonfeng/nicheradar/pkg/niche"
	"github.com/elonfeng/nicheradar/pkg/score"
	"github.com/elonfeng/nicheradar/pkg/source"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Sources  SourcesConfig  `yaml:"sources"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// OutputConfig configures the persisted result file.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig configures the SQLite mirror of the latest result.
// An empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures daemon mode.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
}

// ParseInterval returns the run interval as time.Duration.
func (s ScheduleConfig) ParseInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// SourcesConfig holds configuration for all adapters.
type SourcesConfig struct {
	GoogleTrends GoogleTrendsConfig `yaml:"google_trends"`
	TrendsRSS    TrendsRSSConfig    `yaml:"trends_rss"`
	TikTokCSV    TikTokCSVConfig    `yaml:"tiktok_csv"`
	Sales        SalesConfig        `yaml:"sales"`
}

// GoogleTrendsConfig for the daily trends JSON endpoint.
type GoogleTrendsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// TrendsRSSConfig for the trending searches RSS feed.
type TrendsRSSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// TikTokCSVConfig for the exported keyword CSV.
type TikTokCSVConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// SalesConfig points at the sales feedback file holding boost terms.
type SalesConfig struct {
	Path string `yaml:"path"`
}

// ScoringConfig holds the weight table, news terms and niche table.
type ScoringConfig struct {
	Weights   score.Weights `yaml:"weights"`
	NewsTerms []string      `yaml:"news_terms"`
	Niches    []niche.Niche `yaml:"niches"`
	Fallback  string        `yaml:"fallback"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	MinScore float64       `yaml:"min_score"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Output:   OutputConfig{Path: "trends.json"},
		Database: DatabaseConfig{Path: "./nicheradar.db"},
		Schedule: ScheduleConfig{Interval: "6h"},
		Sources: SourcesConfig{
			GoogleTrends: GoogleTrendsConfig{
				Enabled: true,
				URL:     source.DefaultDailyTrendsURL,
				Timeout: "25s",
			},
			TrendsRSS: TrendsRSSConfig{
				Enabled: false,
				URL:     source.DefaultTrendsRSSURL,
				Timeout: "25s",
			},
			TikTokCSV: TikTokCSVConfig{Enabled: true, Path: "data/tiktok_keywords.csv"},
			Sales:     SalesConfig{Path: "data/sales_feedback.json"},
		},
		Scoring: ScoringConfig{
			Weights:   score.DefaultWeights(),
			NewsTerms: append([]string(nil), score.DefaultNewsTerms...),
			Niches:    append([]niche.Niche(nil), niche.DefaultNiches...),
			Fallback:  niche.Fallback,
		},
		Alerts: AlertsConfig{MinScore: 80},
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the program relies on.
func (c *Config) Validate() error {
	if err := c.Scoring.Weights.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	return nil
}

// ParseTimeout returns a duration string or the 25s default.
func ParseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 25 * time.Second
	}
	return d
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NICHERADAR_OUTPUT"); v != "" {
		cfg.Output.Path = v
	}
	if v, ok := os.LookupEnv("NICHERADAR_DB_PATH"); ok {
		cfg.Database.Path = v
	}
	if v := os.Getenv("NICHERADAR_TIKTOK_CSV"); v != "" {
		cfg.Sources.TikTokCSV.Path = v
	}
	if v := os.Getenv("NICHERADAR_SALES_JSON"); v != "" {
		cfg.Sources.Sales.Path = v
	}
	if v := os.Getenv("NICHERADAR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("NICHERADAR_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
	if v := os.Getenv("NICHERADAR_WEBHOOK_SECRET"); v != "" {
		cfg.Alerts.Webhook.Secret = v
	}
}
