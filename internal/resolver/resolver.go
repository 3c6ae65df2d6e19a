package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/offer-resolver/internal/affiliate"
	"github.com/maltedev/offer-resolver/internal/caption"
	"github.com/maltedev/offer-resolver/internal/diagnostics"
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/scraper"
)

var (
	ErrUnsupportedRetailer = errors.New("unsupported retailer")
	ErrAmbiguousTable      = errors.New("ambiguous retailer table")
	// ErrMissingCredentials is affiliate.ErrMissingCredentials so callers can match either.
	ErrMissingCredentials = affiliate.ErrMissingCredentials
)

// ShortLinkExpander expands redirect-only links with a single round trip.
type ShortLinkExpander interface {
	IsShortLink(rawURL string) bool
	Expand(ctx context.Context, rawURL string) (string, error)
}

type Options struct {
	Table []Route
	// Deadline bounds a whole resolution; remaining strategies are skipped once it passes.
	Deadline time.Duration
	// DefaultCredentials apply when a query carries none.
	DefaultCredentials *models.Credentials
}

// Resolver runs the full pipeline: expand, classify, extract, normalize, caption.
type Resolver struct {
	table      []Route
	extractors map[models.Retailer]scraper.Extractor
	expander   ShortLinkExpander
	sink       diagnostics.Sink
	deadline   time.Duration
	defaults   *models.Credentials
	now        func() time.Time
	logger     *slog.Logger
}

func New(opts Options, extractors []scraper.Extractor, expander ShortLinkExpander, sink diagnostics.Sink, logger *slog.Logger) (*Resolver, error) {
	table := opts.Table
	if table == nil {
		table = DefaultTable
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = diagnostics.NewLogSink(logger)
	}

	byRetailer := make(map[models.Retailer]scraper.Extractor, len(extractors))
	for _, e := range extractors {
		if _, dup := byRetailer[e.Retailer()]; dup {
			return nil, fmt.Errorf("duplicate extractor for %s", e.Retailer())
		}
		byRetailer[e.Retailer()] = e
	}

	return &Resolver{
		table:      table,
		extractors: byRetailer,
		expander:   expander,
		sink:       sink,
		deadline:   opts.Deadline,
		defaults:   opts.DefaultCredentials,
		now:        time.Now,
		logger:     logger.With("component", "resolver"),
	}, nil
}

// Resolve turns a product URL into a record. The record is never nil. The error is set only
// for terminal conditions (unsupported retailer, missing credentials); the record then still
// carries the submitted URL and an explanatory caption.
func (r *Resolver) Resolve(ctx context.Context, q models.ProductQuery) (*models.ProductRecord, error) {
	if r.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	id := uuid.NewString()
	logger := r.logger.With("resolution_id", id)
	rawURL := strings.TrimSpace(q.RawURL)

	target := r.expand(ctx, logger, rawURL)

	retailer, ok := Classify(r.table, target)
	extractor := r.extractors[retailer]
	if !ok || extractor == nil {
		logger.Warn("unsupported retailer", "url", rawURL, "expanded", target)
		rec := r.terminal(id, rawURL, retailer, models.StatusUnsupported)
		r.record(ctx, rec, rawURL)
		return rec, fmt.Errorf("%w: %s", ErrUnsupportedRetailer, rawURL)
	}

	creds := q.Credentials
	if creds.IsZero() {
		creds = r.defaults
	}
	if extractor.RequiresCredentials() && creds.IsZero() {
		logger.Warn("missing credentials", "retailer", retailer)
		rec := r.terminal(id, rawURL, retailer, models.StatusMissingCredentials)
		r.record(ctx, rec, rawURL)
		return rec, fmt.Errorf("%w: %s", ErrMissingCredentials, retailer)
	}

	raw := extractor.Extract(ctx, scraper.Target{URL: target, Credentials: creds})

	rec := Normalize(raw, rawURL)
	rec.ID = id
	rec.Retailer = retailer
	rec.Status = Status(raw, rec)
	if (rec.Status == models.StatusFailed || rec.Status == models.StatusBlocked) && raw.AffiliateURL == "" {
		// nothing was read from the resolved page, so point the user back at what they sent
		rec.URL = rawURL
	}
	rec.ResolvedAt = r.now().UTC()
	rec.Caption = caption.Compose(rec)

	logger.Info("resolved product",
		"retailer", retailer,
		"status", rec.Status,
		"has_price", rec.Price != nil,
		"url", rec.URL,
	)

	r.record(ctx, rec, rawURL)
	return rec, nil
}

// expand pre-resolves short links. Expansion failures keep the submitted URL.
func (r *Resolver) expand(ctx context.Context, logger *slog.Logger, rawURL string) string {
	if r.expander == nil || !r.expander.IsShortLink(rawURL) {
		return rawURL
	}
	expanded, err := r.expander.Expand(ctx, rawURL)
	if err != nil {
		logger.Warn("short link expansion failed", "url", rawURL, "error", err)
		return rawURL
	}
	return expanded
}

func (r *Resolver) terminal(id, rawURL string, retailer models.Retailer, status models.Status) *models.ProductRecord {
	rec := &models.ProductRecord{
		ID:         id,
		Retailer:   retailer,
		Status:     status,
		Title:      models.PlaceholderTitle,
		URL:        rawURL,
		ResolvedAt: r.now().UTC(),
	}
	rec.Caption = caption.Compose(rec)
	return rec
}

func (r *Resolver) record(ctx context.Context, rec *models.ProductRecord, rawURL string) {
	// the deadline may have passed; diagnostics still get a short window of their own
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := r.sink.Record(sctx, diagnostics.NewReport(rec, rawURL)); err != nil {
		r.logger.Warn("failed to record diagnostics", "resolution_id", rec.ID, "error", err)
	}
}
