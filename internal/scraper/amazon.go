package scraper

import (
	"context"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

// AssociateTagger builds an associate link for an Amazon URL, or "" when it cannot.
type AssociateTagger interface {
	Tag(rawURL string) string
}

func NewAmazonExtractor(deps Deps, tagger AssociateTagger) *RetailerExtractor {
	e := &RetailerExtractor{
		retailer: models.RetailerAmazon,
		chain:    NewChain(models.RetailerAmazon, deps.pageStrategies(parser.NewAmazonParser()), deps.StrategyTimeout, deps.logger()),
		logger:   deps.logger().With("component", "extractor", "retailer", string(models.RetailerAmazon)),
	}
	if tagger != nil {
		e.link = func(_ context.Context, target Target) (string, error) {
			return tagger.Tag(target.URL), nil
		}
	}
	return e
}
