package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func DefaultShortLinkHosts() []string {
	return []string{
		"amzn.to",
		"amzn.eu",
		"a.co",
		"shope.ee",
		"s.shopee.com.br",
		"bit.ly",
		"tinyurl.com",
	}
}

// Expander resolves redirect-only short links with exactly one network round trip.
type Expander struct {
	http   *http.Client
	hosts  map[string]struct{}
	ua     string
	logger *slog.Logger
}

func NewExpander(hosts []string, timeout time.Duration, logger *slog.Logger) *Expander {
	if len(hosts) == 0 {
		hosts = DefaultShortLinkHosts()
	}
	if logger == nil {
		logger = slog.Default()
	}

	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}

	return &Expander{
		http:   &http.Client{Timeout: timeout, CheckRedirect: noFollow},
		hosts:  set,
		ua:     DefaultUserAgents()[0],
		logger: logger.With("component", "expander"),
	}
}

// IsShortLink reports whether rawURL points at a known redirect-only host.
func (e *Expander) IsShortLink(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	_, ok := e.hosts[host]
	return ok
}

// Expand returns the redirect target of rawURL. It does not follow the target any further.
// A response without a redirect yields rawURL unchanged.
func (e *Expander) Expand(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.ua)

	resp, err := e.http.Do(req)
	if err != nil {
		return rawURL, fmt.Errorf("failed to expand %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	location := resp.Header.Get("Location")
	if resp.StatusCode < 300 || resp.StatusCode > 399 || location == "" {
		return rawURL, nil
	}

	target, err := req.URL.Parse(location)
	if err != nil {
		return rawURL, fmt.Errorf("invalid redirect location %q: %w", location, err)
	}

	e.logger.Debug("expanded short link", "url", rawURL, "target", target.String())
	return target.String(), nil
}
