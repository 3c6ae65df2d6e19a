package parser

import (
	"regexp"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
)

var amazonTitleSuffix = regexp.MustCompile(`(?i)(^Amazon\.com\.br\s*:\s*|\s*[|:-]\s*Amazon\.com\.br.*$)`)

type AmazonParser struct {
	titleSelectors    []Selector
	imageSelectors    []Selector
	priceSelectors    []Selector
	originalSelectors []Selector
	discountSelectors []Selector
	captchaSelectors  []string
}

func NewAmazonParser() *AmazonParser {
	return &AmazonParser{
		titleSelectors: []Selector{
			Text("#productTitle"),
			Attr("meta[name='title']", "content"),
			Attr("meta[property='og:title']", "content"),
			Text("title"),
		},
		imageSelectors: []Selector{
			Attr("#landingImage", "data-old-hires"),
			Attr("#landingImage", "src"),
			Attr("#imgBlkFront", "src"),
			Attr("meta[property='og:image']", "content"),
		},
		priceSelectors: []Selector{
			Text("span.priceToPay span.a-offscreen"),
			Text("#corePriceDisplay_desktop_feature_div span.a-price span.a-offscreen"),
			Text("span.a-price[data-a-color='base'] span.a-offscreen"),
			Text("#priceblock_dealprice"),
			Text("#priceblock_ourprice"),
			Text("span.a-price span.a-offscreen"),
		},
		originalSelectors: []Selector{
			Text("span.a-price.a-text-price[data-a-strike='true'] span.a-offscreen"),
			Text("span.basisPrice span.a-offscreen"),
			Text("#listPrice"),
		},
		discountSelectors: []Selector{
			Text("span.savingsPercentage"),
			Text("span.savingPriceOverride"),
		},
		captchaSelectors: []string{
			"#captchacharacters",
			"form[action*='Captcha']",
			"form[action*='validateCaptcha']",
		},
	}
}

func (p *AmazonParser) ParseProductPage(html, pageURL string) (*models.RawExtraction, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	raw := &models.RawExtraction{
		Retailer:     models.RetailerAmazon,
		Name:         stripSuffix(First(doc, p.titleSelectors), amazonTitleSuffix),
		ImageURL:     firstImage(doc, p.imageSelectors),
		DiscountText: First(doc, p.discountSelectors),
		ResolvedURL:  pageURL,
	}

	if price := First(doc, p.priceSelectors); price != "" {
		raw.CurrentPrice = models.NewPriceToken(price, models.RoleCurrent, models.SourceDisplay)
	} else if whole := First(doc, []Selector{Text("span.a-price-whole")}); whole != "" {
		// a-price-whole carries a trailing decimal comma ("1.234,") next to a separate fraction span
		whole = strings.TrimRight(whole, ",.")
		if frac := First(doc, []Selector{Text("span.a-price-fraction")}); frac != "" {
			whole += "," + frac
		}
		raw.CurrentPrice = models.NewPriceToken(whole, models.RoleCurrent, models.SourceDisplay)
	}

	if original := First(doc, p.originalSelectors); original != "" {
		raw.OriginalPrice = models.NewPriceToken(original, models.RoleOriginal, models.SourceDisplay)
	}

	return raw, nil
}

func (p *AmazonParser) IsChallengePage(html, pageURL string) bool {
	if strings.Contains(strings.ToLower(pageURL), "captcha") {
		return true
	}

	doc, err := newDocument(html)
	if err != nil {
		return false
	}

	for _, selector := range p.captchaSelectors {
		if doc.Find(selector).Length() > 0 {
			return true
		}
	}

	title := strings.ToLower(doc.Find("title").First().Text())
	return strings.Contains(title, "robot")
}
