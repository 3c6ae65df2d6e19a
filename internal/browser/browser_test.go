package browser

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 4*time.Second, opts.SettleTimeout)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "pt-BR", opts.Locale)
	assert.Equal(t, "America/Sao_Paulo", opts.TimezoneID)
}

func TestBudget(t *testing.T) {
	t.Run("no deadline keeps limit", func(t *testing.T) {
		d, err := budget(context.Background(), 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, d)
	})

	t.Run("deadline caps limit", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		d, err := budget(ctx, time.Minute)
		require.NoError(t, err)
		assert.LessOrEqual(t, d, time.Second)
		assert.Greater(t, d, time.Duration(0))
	})

	t.Run("expired context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := budget(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRenderLaunchFailure(t *testing.T) {
	r := NewRenderer(nil, nil)
	r.launch = func(*Options, *slog.Logger) (*Browser, error) {
		return nil, errors.New("no chromium")
	}

	_, err := r.Render(context.Background(), "https://example.com")
	assert.EqualError(t, err, "no chromium")
}

func TestRenderSkipsWhenDeadlinePassed(t *testing.T) {
	launched := false
	r := NewRenderer(nil, nil)
	r.launch = func(*Options, *slog.Logger) (*Browser, error) {
		launched = true
		return nil, errors.New("unexpected launch")
	}

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	_, err := r.Render(ctx, "https://example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, launched)
}

func TestRenderRealBrowser(t *testing.T) {
	if os.Getenv("PLAYWRIGHT_INTEGRATION") == "" {
		t.Skip("Skipping browser test; set PLAYWRIGHT_INTEGRATION=1 to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	page, err := NewRenderer(nil, nil).Render(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, page.HTML, "Example Domain")
}
