package scraper

import (
	"context"
	"errors"

	"github.com/maltedev/offer-resolver/internal/browser"
	"github.com/maltedev/offer-resolver/internal/fetch"
	"github.com/maltedev/offer-resolver/internal/models"
)

var (
	// ErrBlocked means the retailer answered with a captcha or verification page.
	ErrBlocked = errors.New("blocked by anti-bot challenge")
	// ErrNotApplicable means a strategy cannot run for this target, e.g. no item id in the URL.
	ErrNotApplicable = errors.New("strategy not applicable")
)

// Target is what every strategy of one extraction works on.
type Target struct {
	URL         string
	Credentials *models.Credentials
}

// Strategy is one step of an extraction chain.
type Strategy interface {
	Name() string
	// Fills lists the fields the strategy is able to populate.
	Fills() []models.Field
	Run(ctx context.Context, target Target) (*models.RawExtraction, error)
}

// Extractor produces a best-effort RawExtraction for one retailer. Extract never fails;
// every internal failure ends up in RawExtraction.Attempts.
type Extractor interface {
	Retailer() models.Retailer
	RequiresCredentials() bool
	Extract(ctx context.Context, target Target) *models.RawExtraction
}

// PageFetcher is the plain HTTP transport of the static strategy.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string) (*fetch.Page, error)
}

// PageRenderer is the browser transport of the rendered strategy.
type PageRenderer interface {
	Render(ctx context.Context, rawURL string) (*browser.RenderedPage, error)
}
