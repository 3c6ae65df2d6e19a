package scraper

import (
	"context"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

// StorefrontRewriter maps a product URL onto the tenant's storefront.
type StorefrontRewriter interface {
	Rewrite(rawURL string) string
}

func NewMagaluExtractor(deps Deps, storefront StorefrontRewriter) *RetailerExtractor {
	e := &RetailerExtractor{
		retailer: models.RetailerMagalu,
		chain:    NewChain(models.RetailerMagalu, deps.pageStrategies(parser.NewMagaluParser()), deps.StrategyTimeout, deps.logger()),
		logger:   deps.logger().With("component", "extractor", "retailer", string(models.RetailerMagalu)),
	}
	if storefront != nil {
		e.link = func(_ context.Context, target Target) (string, error) {
			return storefront.Rewrite(target.URL), nil
		}
	}
	return e
}
