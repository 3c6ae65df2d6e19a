package parser

import (
	"regexp"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
)

var shopeeTitleSuffix = regexp.MustCompile(`(?i)\s*[|-]\s*Shopee\s*Brasil.*$`)

type ShopeeParser struct {
	titleSelectors []Selector
	imageSelectors []Selector
	priceSelectors []Selector
}

func NewShopeeParser() *ShopeeParser {
	return &ShopeeParser{
		titleSelectors: []Selector{
			Attr("meta[property='og:title']", "content"),
			Text("title"),
		},
		imageSelectors: []Selector{
			Attr("meta[property='og:image']", "content"),
		},
		priceSelectors: []Selector{
			Attr("meta[property='product:price:amount']", "content"),
			Attr("meta[itemprop='price']", "content"),
		},
	}
}

func (p *ShopeeParser) ParseProductPage(html, pageURL string) (*models.RawExtraction, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	raw := &models.RawExtraction{
		Retailer:    models.RetailerShopee,
		Name:        stripSuffix(First(doc, p.titleSelectors), shopeeTitleSuffix),
		ImageURL:    firstImage(doc, p.imageSelectors),
		ResolvedURL: pageURL,
	}

	if v := First(doc, p.priceSelectors); v != "" {
		raw.CurrentPrice = models.NewPriceToken(v, models.RoleCurrent, models.SourceMachine)
	}

	if ld, ok := ReadProductLD(doc); ok {
		if raw.Name == "" {
			raw.Name = stripSuffix(ld.Name, shopeeTitleSuffix)
		}
		if raw.ImageURL == "" {
			raw.ImageURL = imageURL(ld.Image)
		}
		low := ld.Price
		if low == "" {
			low = ld.LowPrice
		}
		if raw.CurrentPrice == nil && low != "" {
			raw.CurrentPrice = models.NewPriceToken(low, models.RoleCurrent, models.SourceMachine)
		}
		if ld.HighPrice != "" && ld.HighPrice != low {
			raw.OriginalPrice = models.NewPriceToken(ld.HighPrice, models.RoleOriginal, models.SourceMachine)
		}
	}

	return raw, nil
}

func (p *ShopeeParser) IsChallengePage(html, pageURL string) bool {
	lower := strings.ToLower(pageURL)
	return strings.Contains(lower, "/verify/") || strings.Contains(lower, "captcha")
}
