package scraper

import (
	"context"
	"fmt"

	"github.com/maltedev/offer-resolver/internal/affiliate"
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

// ShopeeAPI is the signed affiliate API used for both the structured strategy and link generation.
type ShopeeAPI interface {
	ProductOffer(ctx context.Context, creds *models.Credentials, itemID int64) (*affiliate.Offer, error)
	ShortLink(ctx context.Context, creds *models.Credentials, originURL string) (string, error)
}

// ShopeeAPIStrategy reads the product straight from the affiliate productOfferV2 query.
type ShopeeAPIStrategy struct {
	api ShopeeAPI
}

func NewShopeeAPIStrategy(api ShopeeAPI) *ShopeeAPIStrategy {
	return &ShopeeAPIStrategy{api: api}
}

func (s *ShopeeAPIStrategy) Name() string { return "structured_api" }

func (s *ShopeeAPIStrategy) Fills() []models.Field {
	return []models.Field{models.FieldName, models.FieldImage, models.FieldCurrentPrice, models.FieldOriginalPrice}
}

func (s *ShopeeAPIStrategy) Run(ctx context.Context, target Target) (*models.RawExtraction, error) {
	itemID, err := affiliate.ExtractShopeeItemID(target.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotApplicable, err)
	}

	offer, err := s.api.ProductOffer(ctx, target.Credentials, itemID)
	if err != nil {
		return nil, err
	}

	raw := &models.RawExtraction{
		Retailer: models.RetailerShopee,
		Name:     offer.ProductName,
		ImageURL: offer.ImageURL,
	}
	if offer.PriceMin != "" {
		raw.CurrentPrice = models.NewPriceToken(offer.PriceMin, models.RoleCurrent, models.SourceMinorUnits)
	}
	if offer.PriceMax != "" && offer.PriceMax != offer.PriceMin {
		raw.OriginalPrice = models.NewPriceToken(offer.PriceMax, models.RoleOriginal, models.SourceMinorUnits)
	}
	return raw, nil
}

// NewShopeeExtractor chains the signed API, the static page and the rendered page.
// The affiliate short link is generated before the chain runs.
func NewShopeeExtractor(deps Deps, api ShopeeAPI) *RetailerExtractor {
	p := parser.NewShopeeParser()
	strategies := append([]Strategy{NewShopeeAPIStrategy(api)}, deps.pageStrategies(p)...)

	return &RetailerExtractor{
		retailer:            models.RetailerShopee,
		chain:               NewChain(models.RetailerShopee, strategies, deps.StrategyTimeout, deps.logger()),
		requiresCredentials: true,
		link: func(ctx context.Context, target Target) (string, error) {
			return api.ShortLink(ctx, target.Credentials, target.URL)
		},
		logger: deps.logger().With("component", "extractor", "retailer", string(models.RetailerShopee)),
	}
}
