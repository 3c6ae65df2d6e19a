package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

// Deps are the transports shared by all retailer extractors. A nil Renderer leaves the
// rendered-page strategy out of every chain.
type Deps struct {
	Fetcher         PageFetcher
	Renderer        PageRenderer
	StrategyTimeout time.Duration
	Logger          *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// pageStrategies returns the static and (when a renderer is configured) rendered strategies for p.
func (d Deps) pageStrategies(p parser.Parser) []Strategy {
	strategies := []Strategy{NewStaticStrategy(d.Fetcher, p)}
	if d.Renderer != nil {
		strategies = append(strategies, NewRenderedStrategy(d.Renderer, p))
	}
	return strategies
}

// linkFunc produces an affiliate URL for a target, or "" when there is none.
type linkFunc func(ctx context.Context, target Target) (string, error)

// linkStrategy names the affiliate step in the attempt trail.
const linkStrategy = "affiliate_link"

// RetailerExtractor pairs a strategy chain with the retailer's affiliate step.
type RetailerExtractor struct {
	retailer            models.Retailer
	chain               *Chain
	link                linkFunc
	requiresCredentials bool
	keepInputURL        bool
	logger              *slog.Logger
}

func (e *RetailerExtractor) Retailer() models.Retailer { return e.retailer }

func (e *RetailerExtractor) RequiresCredentials() bool { return e.requiresCredentials }

func (e *RetailerExtractor) Extract(ctx context.Context, target Target) *models.RawExtraction {
	raw := &models.RawExtraction{Retailer: e.retailer}

	if e.link != nil {
		e.applyLink(ctx, target, raw)
	}

	e.chain.Run(ctx, target, raw)

	if e.keepInputURL {
		raw.ResolvedURL = target.URL
	}

	e.logger.Info("extraction finished",
		"url", target.URL,
		"blocked", raw.Blocked,
		"missing", raw.Missing(DefaultRequired),
		"attempts", len(raw.Attempts),
	)

	return raw
}

// applyLink sets the affiliate URL. A failed link step is recorded as an attempt and the
// record falls back to the input URL.
func (e *RetailerExtractor) applyLink(ctx context.Context, target Target, raw *models.RawExtraction) {
	start := time.Now()
	link, err := e.link(ctx, target)
	if err != nil {
		raw.Attempts = append(raw.Attempts, models.ExtractionAttempt{
			Retailer: e.retailer,
			Strategy: linkStrategy,
			Outcome:  models.OutcomeFailed,
			Error:    err.Error(),
			Duration: time.Since(start),
		})
		e.logger.Warn("affiliate link failed, keeping original URL", "url", target.URL, "error", err)
		return
	}
	if link != "" && link != target.URL {
		raw.AffiliateURL = link
	}
}
