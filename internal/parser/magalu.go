package parser

import (
	"regexp"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
)

var (
	magaluTitleSuffix  = regexp.MustCompile(`(?i)\s*-\s*(Magazine|Magalu).*$`)
	magaluPixDiscount  = regexp.MustCompile(`(?i)(\d+% de desconto no pix)`)
	magaluInstallments = regexp.MustCompile(`(\d+x de R\$\s?[\d.,]+(?:\s*sem juros)?)`)
)

type MagaluParser struct {
	titleSelectors    []Selector
	imageSelectors    []Selector
	priceSelectors    []Selector
	originalSelectors []Selector
}

func NewMagaluParser() *MagaluParser {
	return &MagaluParser{
		titleSelectors: []Selector{
			Attr("meta[property='og:title']", "content"),
			Text("h1[data-testid='heading-product-title']"),
			Text("title"),
		},
		imageSelectors: []Selector{
			Attr("img[data-testid='image-selected-thumbnail']", "src"),
			Attr("meta[property='og:image']", "content"),
		},
		priceSelectors: []Selector{
			Text("[data-testid='price-value']"),
			Attr("meta[property='product:price:amount']", "content"),
		},
		originalSelectors: []Selector{
			Text("[data-testid='price-original']"),
		},
	}
}

func (p *MagaluParser) ParseProductPage(html, pageURL string) (*models.RawExtraction, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	raw := &models.RawExtraction{
		Retailer:    models.RetailerMagalu,
		Name:        stripSuffix(First(doc, p.titleSelectors), magaluTitleSuffix),
		ImageURL:    firstImage(doc, p.imageSelectors),
		ResolvedURL: pageURL,
	}

	if v := First(doc, p.priceSelectors[:1]); v != "" {
		raw.CurrentPrice = models.NewPriceToken(v, models.RoleCurrent, models.SourceDisplay)
	} else if v := First(doc, p.priceSelectors[1:]); v != "" {
		raw.CurrentPrice = models.NewPriceToken(v, models.RoleCurrent, models.SourceMachine)
	}

	if v := First(doc, p.originalSelectors); v != "" {
		raw.OriginalPrice = models.NewPriceToken(v, models.RoleOriginal, models.SourceDisplay)
	}

	text := collapse(doc.Find("body").Text())
	if m := magaluPixDiscount.FindStringSubmatch(text); m != nil {
		raw.DiscountText = m[1]
	}
	if m := magaluInstallments.FindStringSubmatch(text); m != nil {
		raw.Installments = m[1]
	}

	if raw.CurrentPrice == nil {
		if ld, ok := ReadProductLD(doc); ok && ld.Price != "" {
			raw.CurrentPrice = models.NewPriceToken(ld.Price, models.RoleCurrent, models.SourceMachine)
		}
	}

	return raw, nil
}

func (p *MagaluParser) IsChallengePage(html, pageURL string) bool {
	return strings.Contains(pageURL, "az-request-verify")
}
