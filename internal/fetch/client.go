package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"
)

// maxResponseBodyBytes limits the size of fetched product pages.
const maxResponseBodyBytes = 5 * 1024 * 1024

// ErrUnexpectedStatus is returned for non-2xx responses. Callers use errors.Is to tell it apart
// from transport failures.
var ErrUnexpectedStatus = errors.New("unexpected status code")

type Options struct {
	Timeout        time.Duration
	UserAgents     []string
	AcceptLanguage string
	MaxRedirects   int
}

func DefaultOptions() *Options {
	return &Options{
		Timeout:        12 * time.Second,
		UserAgents:     DefaultUserAgents(),
		AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		MaxRedirects:   10,
	}
}

func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	}
}

// Page is a fetched document and the URL it ended up at after redirects.
type Page struct {
	HTML       string
	FinalURL   string
	StatusCode int
}

// Client performs the plain GET requests of the static-HTML strategy.
type Client struct {
	http   *http.Client
	opts   *Options
	logger *slog.Logger
}

func NewClient(opts *Options, logger *slog.Logger) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http: &http.Client{
			Timeout:       opts.Timeout,
			CheckRedirect: RedirectPolicy(opts.MaxRedirects),
		},
		opts:   opts,
		logger: logger.With("component", "fetch"),
	}
}

// Get fetches rawURL. The request is bounded by both the client timeout and ctx.
func (c *Client) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	page := &Page{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	c.logger.Debug("fetched page",
		"url", rawURL,
		"final_url", page.FinalURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return page, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	if c.opts.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", c.opts.AcceptLanguage)
	}
}

func (c *Client) userAgent() string {
	if len(c.opts.UserAgents) == 0 {
		return DefaultUserAgents()[0]
	}
	return c.opts.UserAgents[rand.IntN(len(c.opts.UserAgents))]
}
