package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Vaults.IDs = []string{"vault-1"}
	return cfg
}

func TestDefaults_ValidateWithVaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "banana"
	cfg.Redis.Addr = ""
	cfg.Insights.PerformanceFeeRate = 1.5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "redis: addr")
	assert.Contains(t, err.Error(), "performance_fee_rate")
}

func TestValidate_NodoSourceNeedsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.Source = "nodo"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_secret or encrypted_secret_path")

	cfg.Upstream.APISecret = "s3cret"
	require.NoError(t, cfg.Validate())
}

func TestValidate_RefreshNeedsVaults(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "refresh"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one vault")

	// Server-only mode does not need a vault list.
	cfg.Mode = "server"
	require.NoError(t, cfg.Validate())
}

func TestLoad_TOMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	raw := `
mode = "server"
log_level = "debug"

[upstream]
source = "fixture"

[vaults]
ids = ["vault-1", "vault-2"]

[insights]
summary_ttl = "90s"

[server]
port = 9090
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv("VAULTSIGHT_SERVER_PORT", "7070")
	t.Setenv("VAULTSIGHT_VAULT_IDS", "vault-a, vault-b")
	t.Setenv("VAULTSIGHT_REFRESH_INGEST_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "server", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.Insights.SummaryTTL.Duration)
	// Env beats file.
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"vault-a", "vault-b"}, cfg.Vaults.IDs)
	assert.Equal(t, 30*time.Second, cfg.Refresh.IngestInterval.Duration)
	// Untouched fields keep defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.APISecret = "topsecret"
	cfg.Postgres.Password = "dbpass"
	cfg.Redis.Password = ""

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Upstream.APISecret)
	assert.Equal(t, "***", red.Postgres.Password)
	// Empty values stay empty rather than becoming placeholders.
	assert.Empty(t, red.Redis.Password)
	// The original is untouched.
	assert.Equal(t, "topsecret", cfg.Upstream.APISecret)

	// Mutating the redacted copy's slices must not leak back.
	red.Vaults.IDs[0] = "mutated"
	assert.Equal(t, "vault-1", cfg.Vaults.IDs[0])
}
