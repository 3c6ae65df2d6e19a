package scraper

import (
	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

// NewMercadoLivreExtractor keeps the submitted URL as the record URL: Mercado Livre
// affiliate links are already specific to the user who shared them.
func NewMercadoLivreExtractor(deps Deps) *RetailerExtractor {
	return &RetailerExtractor{
		retailer:     models.RetailerMercadoLivre,
		chain:        NewChain(models.RetailerMercadoLivre, deps.pageStrategies(parser.NewMercadoLivreParser()), deps.StrategyTimeout, deps.logger()),
		keepInputURL: true,
		logger:       deps.logger().With("component", "extractor", "retailer", string(models.RetailerMercadoLivre)),
	}
}
