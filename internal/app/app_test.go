package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maltedev/offer-resolver/internal/config"
	"github.com/maltedev/offer-resolver/internal/diagnostics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Resolver: config.ResolverConfig{Deadline: time.Minute, StrategyTimeout: 30 * time.Second},
		Fetch: config.FetchConfig{
			Timeout:        5 * time.Second,
			MaxRedirects:   5,
			ShortLinkHosts: []string{"amzn.to"},
			ExpandTimeout:  time.Second,
		},
		Browser: config.BrowserConfig{
			Enabled:       true,
			Headless:      true,
			Timeout:       20 * time.Second,
			SettleTimeout: 2 * time.Second,
			Locale:        "pt-BR",
		},
		Diagnostics: config.DiagnosticsConfig{Sink: "log"},
	}
}

func TestBuildWithLogSink(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), slog.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Resolver)
	assert.IsType(t, &diagnostics.LogSink{}, a.sink)
}

func TestBuildWithRedisSink(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Diagnostics.Sink = "redis"
	cfg.Diagnostics.RedisAddr = mr.Addr()
	cfg.Diagnostics.Stream = "attempts"

	a, err := Build(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &diagnostics.RedisStreamSink{}, a.sink)
}

func TestBuildFailsWhenRedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Diagnostics.Sink = "redis"
	cfg.Diagnostics.RedisAddr = "127.0.0.1:1"

	_, err := Build(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "failed to connect to Redis")
}

func TestBrowserOptions(t *testing.T) {
	opts := browserOptions(testConfig().Browser)

	assert.Equal(t, 20*time.Second, opts.Timeout)
	assert.Equal(t, 2*time.Second, opts.SettleTimeout)
	assert.Equal(t, "pt-BR", opts.Locale)
	assert.NotEmpty(t, opts.UserAgent)
}
