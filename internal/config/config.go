// Package config defines the top-level configuration for the vault insights
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by VAULTSIGHT_* environment variables.
type Config struct {
	Upstream Upstream       `toml:"upstream"`
	Vaults   VaultsConfig   `toml:"vaults"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Insights InsightsConfig `toml:"insights"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// Upstream holds the NODO data-management API endpoint and credentials. When
// Source is "fixture" the service runs against a deterministic synthetic feed
// and no credentials are needed.
type Upstream struct {
	Source              string `toml:"source"` // "nodo" or "fixture"
	BaseURL             string `toml:"base_url"`
	APIKey              string `toml:"api_key"`
	APISecret           string `toml:"api_secret"`
	EncryptedSecretPath string `toml:"encrypted_secret_path"`
	SecretPassword      string `toml:"secret_password"`
}

// VaultsConfig lists the vaults the background refresher keeps warm.
type VaultsConfig struct {
	IDs []string `toml:"ids"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for cold-storage
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// InsightsConfig holds tuning knobs for the insight computation layer.
type InsightsConfig struct {
	PerformanceFeeRate float64  `toml:"performance_fee_rate"`
	SummaryTTL         duration `toml:"summary_ttl"`
	BreakdownTTL       duration `toml:"breakdown_ttl"`
	FetchLimit         int      `toml:"fetch_limit"`
}

// RefreshConfig holds background refresh loop parameters.
type RefreshConfig struct {
	Enabled              bool     `toml:"enabled"`
	IngestInterval       duration `toml:"ingest_interval"`
	RefreshInterval      duration `toml:"refresh_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled         bool     `toml:"enabled"`
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	APIKey          string   `toml:"api_key"`
	RateLimitPerMin int      `toml:"rate_limit_per_min"`
	SessionTTL      duration `toml:"session_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Upstream: Upstream{
			Source:  "fixture",
			BaseURL: "https://api.nodo.xyz",
		},
		Vaults: VaultsConfig{
			IDs: []string{},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "vaultsight",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "vaultsight-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Insights: InsightsConfig{
			PerformanceFeeRate: 0.10,
			SummaryTTL:         duration{60 * time.Second},
			BreakdownTTL:       duration{60 * time.Second},
			FetchLimit:         100,
		},
		Refresh: RefreshConfig{
			Enabled:              true,
			IngestInterval:       duration{5 * time.Minute},
			RefreshInterval:      duration{time.Minute},
			ArchiveRetentionDays: 90,
			ArchiveCron:          "0 3 1 * *",
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMin: 120,
			SessionTTL:      duration{24 * time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"stop_loss_detected", "driver_changed", "refresh_error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"refresh": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validSources enumerates the accepted values for Upstream.Source.
var validSources = map[string]bool{
	"nodo":    true,
	"fixture": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, refresh, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Upstream
	if !validSources[strings.ToLower(c.Upstream.Source)] {
		errs = append(errs, fmt.Sprintf("upstream: unknown source %q (valid: nodo, fixture)", c.Upstream.Source))
	}
	if strings.EqualFold(c.Upstream.Source, "nodo") {
		if c.Upstream.BaseURL == "" {
			errs = append(errs, "upstream: base_url must not be empty when source is nodo")
		}
		if c.Upstream.APISecret == "" && c.Upstream.EncryptedSecretPath == "" {
			errs = append(errs, "upstream: either api_secret or encrypted_secret_path must be set when source is nodo")
		}
		if c.Upstream.EncryptedSecretPath != "" && c.Upstream.SecretPassword == "" {
			errs = append(errs, "upstream: secret_password is required when encrypted_secret_path is set")
		}
	}

	// The refresher needs at least one vault to work on.
	refreshing := c.Mode == "refresh" || c.Mode == "full"
	if refreshing && c.Refresh.Enabled && len(c.Vaults.IDs) == 0 {
		errs = append(errs, "vaults: ids must list at least one vault for mode "+c.Mode)
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Insights
	if c.Insights.PerformanceFeeRate < 0 || c.Insights.PerformanceFeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("insights: performance_fee_rate must be in [0, 1), got %v", c.Insights.PerformanceFeeRate))
	}
	if c.Insights.SummaryTTL.Duration <= 0 {
		errs = append(errs, "insights: summary_ttl must be > 0")
	}
	if c.Insights.FetchLimit < 1 {
		errs = append(errs, "insights: fetch_limit must be >= 1")
	}

	// Refresh
	if c.Refresh.Enabled {
		if c.Refresh.IngestInterval.Duration <= 0 {
			errs = append(errs, "refresh: ingest_interval must be > 0 when enabled")
		}
		if c.Refresh.RefreshInterval.Duration <= 0 {
			errs = append(errs, "refresh: refresh_interval must be > 0 when enabled")
		}
		if c.Refresh.ArchiveRetentionDays < 1 {
			errs = append(errs, "refresh: archive_retention_days must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.SessionTTL.Duration <= 0 {
			errs = append(errs, "server: session_ttl must be > 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
