package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// RenderedPage is the settled DOM of a page after script execution.
type RenderedPage struct {
	HTML     string
	FinalURL string
}

// Renderer launches a fresh browser for every Render call and closes it before returning,
// so no browser process outlives the attempt that started it.
type Renderer struct {
	opts   *Options
	logger *slog.Logger
	launch func(*Options, *slog.Logger) (*Browser, error)
}

func NewRenderer(opts *Options, logger *slog.Logger) *Renderer {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		opts:   opts,
		logger: logger.With("component", "renderer"),
		launch: New,
	}
}

// Render navigates to rawURL, waits for the network to calm down (capped at SettleTimeout)
// and returns the page content. Navigation is bounded by the smaller of the configured
// timeout and the time left on ctx.
func (r *Renderer) Render(ctx context.Context, rawURL string) (*RenderedPage, error) {
	navTimeout, err := budget(ctx, r.opts.Timeout)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	b, err := r.launch(r.opts, r.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			r.logger.Warn("failed to close browser", "error", err)
		}
	}()

	page, err := b.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if _, err := page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", rawURL, err)
	}

	if settle, err := budget(ctx, r.opts.SettleTimeout); err == nil {
		// a page that never goes idle is still usable; the wait only gives late price blocks a chance
		if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateNetworkidle,
			Timeout: playwright.Float(float64(settle.Milliseconds())),
		}); err != nil {
			r.logger.Debug("settle wait ended early", "url", rawURL, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	r.logger.Debug("rendered page", "url", rawURL, "final_url", page.URL(), "duration", time.Since(start))

	return &RenderedPage{HTML: html, FinalURL: page.URL()}, nil
}

// budget caps limit by the time left until ctx's deadline.
func budget(ctx context.Context, limit time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return limit, nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, context.DeadlineExceeded
	}
	if limit <= 0 || remaining < limit {
		return remaining, nil
	}
	return limit, nil
}
