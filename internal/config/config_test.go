package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Resolver.Deadline)
	assert.Equal(t, 4, cfg.Resolver.BatchWorkers)
	assert.Equal(t, "pt-BR", cfg.Browser.Locale)
	assert.True(t, cfg.Browser.Enabled)
	assert.Equal(t, "log", cfg.Diagnostics.Sink)
	assert.Contains(t, cfg.Fetch.ShortLinkHosts, "amzn.to")
	assert.Nil(t, cfg.Shopee.DefaultCredentials())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RESOLVER_DEADLINE", "45s")
	t.Setenv("FETCH_SHORT_LINK_HOSTS", "amzn.to, shope.ee ,")
	t.Setenv("SHOPEE_APP_ID", "183")
	t.Setenv("SHOPEE_SECRET", "s3cret")
	t.Setenv("BROWSER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Resolver.Deadline)
	assert.Equal(t, []string{"amzn.to", "shope.ee"}, cfg.Fetch.ShortLinkHosts)
	assert.False(t, cfg.Browser.Enabled)

	creds := cfg.Shopee.DefaultCredentials()
	require.NotNil(t, creds)
	assert.Equal(t, "183", creds.AppID)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAGALU_STORE_ID=in_603815\nLOG_LEVEL=debug\n"), 0o600))
	t.Chdir(dir)
	// godotenv sets variables directly, so register them for cleanup
	t.Setenv("MAGALU_STORE_ID", "")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("MAGALU_STORE_ID")
	os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "in_603815", cfg.Magalu.StoreID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		errMsg string
	}{
		{"Bad port", "SERVER_PORT", "http", "invalid SERVER_PORT"},
		{"Half credentials", "SHOPEE_APP_ID", "183", "must be set together"},
		{"Unknown sink", "DIAGNOSTICS_SINK", "kafka", "DIAGNOSTICS_SINK"},
		{"Settle longer than timeout", "BROWSER_SETTLE_TIMEOUT", "1m", "BROWSER_SETTLE_TIMEOUT"},
		{"No batch workers", "RESOLVER_BATCH_WORKERS", "0", "RESOLVER_BATCH_WORKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
