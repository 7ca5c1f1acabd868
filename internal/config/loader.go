package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies VAULTSIGHT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known VAULTSIGHT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Upstream ──
	setStr(&cfg.Upstream.Source, "VAULTSIGHT_UPSTREAM_SOURCE")
	setStr(&cfg.Upstream.BaseURL, "VAULTSIGHT_UPSTREAM_BASE_URL")
	setStr(&cfg.Upstream.APIKey, "VAULTSIGHT_UPSTREAM_API_KEY")
	setStr(&cfg.Upstream.APISecret, "VAULTSIGHT_UPSTREAM_API_SECRET")
	setStr(&cfg.Upstream.EncryptedSecretPath, "VAULTSIGHT_UPSTREAM_ENCRYPTED_SECRET_PATH")
	setStr(&cfg.Upstream.SecretPassword, "VAULTSIGHT_UPSTREAM_SECRET_PASSWORD")

	// ── Vaults ──
	setStringSlice(&cfg.Vaults.IDs, "VAULTSIGHT_VAULT_IDS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "VAULTSIGHT_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "VAULTSIGHT_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "VAULTSIGHT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "VAULTSIGHT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "VAULTSIGHT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "VAULTSIGHT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "VAULTSIGHT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "VAULTSIGHT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "VAULTSIGHT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "VAULTSIGHT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "VAULTSIGHT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "VAULTSIGHT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "VAULTSIGHT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "VAULTSIGHT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "VAULTSIGHT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "VAULTSIGHT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "VAULTSIGHT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "VAULTSIGHT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "VAULTSIGHT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "VAULTSIGHT_S3_REGION")
	setStr(&cfg.S3.Bucket, "VAULTSIGHT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "VAULTSIGHT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "VAULTSIGHT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "VAULTSIGHT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "VAULTSIGHT_S3_FORCE_PATH_STYLE")

	// ── Insights ──
	setFloat64(&cfg.Insights.PerformanceFeeRate, "VAULTSIGHT_INSIGHTS_PERFORMANCE_FEE_RATE")
	setDuration(&cfg.Insights.SummaryTTL, "VAULTSIGHT_INSIGHTS_SUMMARY_TTL")
	setDuration(&cfg.Insights.BreakdownTTL, "VAULTSIGHT_INSIGHTS_BREAKDOWN_TTL")
	setInt(&cfg.Insights.FetchLimit, "VAULTSIGHT_INSIGHTS_FETCH_LIMIT")

	// ── Refresh ──
	setBool(&cfg.Refresh.Enabled, "VAULTSIGHT_REFRESH_ENABLED")
	setDuration(&cfg.Refresh.IngestInterval, "VAULTSIGHT_REFRESH_INGEST_INTERVAL")
	setDuration(&cfg.Refresh.RefreshInterval, "VAULTSIGHT_REFRESH_INTERVAL")
	setInt(&cfg.Refresh.ArchiveRetentionDays, "VAULTSIGHT_REFRESH_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Refresh.ArchiveCron, "VAULTSIGHT_REFRESH_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "VAULTSIGHT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "VAULTSIGHT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "VAULTSIGHT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "VAULTSIGHT_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitPerMin, "VAULTSIGHT_SERVER_RATE_LIMIT_PER_MIN")
	setDuration(&cfg.Server.SessionTTL, "VAULTSIGHT_SERVER_SESSION_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "VAULTSIGHT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "VAULTSIGHT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "VAULTSIGHT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "VAULTSIGHT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "VAULTSIGHT_MODE")
	setStr(&cfg.LogLevel, "VAULTSIGHT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
