package scraper

import (
	"context"
	"fmt"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/parser"
)

var pageFields = []models.Field{
	models.FieldName,
	models.FieldImage,
	models.FieldCurrentPrice,
	models.FieldOriginalPrice,
	models.FieldDiscount,
	models.FieldInstallments,
}

// StaticStrategy fetches the page over plain HTTP and reads its markers.
type StaticStrategy struct {
	fetcher PageFetcher
	parser  parser.Parser
}

func NewStaticStrategy(fetcher PageFetcher, p parser.Parser) *StaticStrategy {
	return &StaticStrategy{fetcher: fetcher, parser: p}
}

func (s *StaticStrategy) Name() string { return "static_html" }

func (s *StaticStrategy) Fills() []models.Field { return pageFields }

func (s *StaticStrategy) Run(ctx context.Context, target Target) (*models.RawExtraction, error) {
	page, err := s.fetcher.Get(ctx, target.URL)
	if page != nil && s.parser.IsChallengePage(page.HTML, page.FinalURL) {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, page.FinalURL)
	}
	if err != nil {
		return nil, err
	}
	return s.parser.ParseProductPage(page.HTML, page.FinalURL)
}

// RenderedStrategy renders the page in a browser and reads it with the same parser
// as the static strategy.
type RenderedStrategy struct {
	renderer PageRenderer
	parser   parser.Parser
}

func NewRenderedStrategy(renderer PageRenderer, p parser.Parser) *RenderedStrategy {
	return &RenderedStrategy{renderer: renderer, parser: p}
}

func (s *RenderedStrategy) Name() string { return "rendered_page" }

func (s *RenderedStrategy) Fills() []models.Field { return pageFields }

func (s *RenderedStrategy) Run(ctx context.Context, target Target) (*models.RawExtraction, error) {
	page, err := s.renderer.Render(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	if s.parser.IsChallengePage(page.HTML, page.FinalURL) {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, page.FinalURL)
	}
	return s.parser.ParseProductPage(page.HTML, page.FinalURL)
}
