package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/offer-resolver/internal/models"
)

var (
	mlTitleSuffix = regexp.MustCompile(`(?i)\s*[|-]\s*Mercado\s*Livre.*$`)

	// Affiliate landing pages (/sec/) embed the offer as JSON next to the markup.
	mlCurrentPriceJSON  = regexp.MustCompile(`"current_price"\s*:\s*\{[^}]*"value"\s*:\s*([\d.]+)`)
	mlPreviousPriceJSON = regexp.MustCompile(`"previous_price"\s*:\s*\{[^}]*"value"\s*:\s*([\d.]+)`)
)

type MercadoLivreParser struct {
	titleSelectors    []Selector
	imageSelectors    []Selector
	discountSelectors []Selector
	amountContainers  []string
	previousContainer []string
}

func NewMercadoLivreParser() *MercadoLivreParser {
	return &MercadoLivreParser{
		titleSelectors: []Selector{
			Attr("meta[property='og:title']", "content"),
			Text("h1.ui-pdp-title"),
			Text("title"),
		},
		imageSelectors: []Selector{
			Attr("figure.ui-pdp-gallery__figure img", "data-zoom"),
			Attr("meta[property='og:image']", "content"),
			Attr("figure.ui-pdp-gallery__figure img", "src"),
		},
		discountSelectors: []Selector{
			Text(".ui-pdp-price__second-line .andes-money-amount__discount"),
			Text(".andes-money-amount__discount"),
		},
		amountContainers: []string{
			".ui-pdp-price__second-line .andes-money-amount",
			".andes-money-amount:not(.andes-money-amount--previous)",
		},
		previousContainer: []string{
			"s.andes-money-amount--previous",
			".andes-money-amount--previous",
			".ui-pdp-price__original-value",
		},
	}
}

func (p *MercadoLivreParser) ParseProductPage(html, pageURL string) (*models.RawExtraction, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, err
	}

	raw := &models.RawExtraction{
		Retailer:     models.RetailerMercadoLivre,
		Name:         stripSuffix(First(doc, p.titleSelectors), mlTitleSuffix),
		ImageURL:     firstImage(doc, p.imageSelectors),
		DiscountText: First(doc, p.discountSelectors),
		ResolvedURL:  pageURL,
	}

	if strings.Contains(pageURL, "/sec/") {
		if m := mlCurrentPriceJSON.FindStringSubmatch(html); m != nil {
			raw.CurrentPrice = models.NewPriceToken(m[1], models.RoleCurrent, models.SourceMachine)
			if prev := mlPreviousPriceJSON.FindStringSubmatch(html); prev != nil {
				raw.OriginalPrice = models.NewPriceToken(prev[1], models.RoleOriginal, models.SourceMachine)
			}
		}
	}

	if raw.CurrentPrice == nil {
		if v := First(doc, []Selector{Attr("meta[itemprop='price']", "content")}); v != "" {
			raw.CurrentPrice = models.NewPriceToken(v, models.RoleCurrent, models.SourceMachine)
		} else if v := firstAmount(doc, p.amountContainers); v != "" {
			raw.CurrentPrice = models.NewPriceToken(v, models.RoleCurrent, models.SourceDisplay)
		}
	}

	if raw.OriginalPrice == nil {
		if v := firstAmount(doc, p.previousContainer); v != "" {
			raw.OriginalPrice = models.NewPriceToken(v, models.RoleOriginal, models.SourceDisplay)
		} else if v := First(doc, []Selector{Text("s")}); v != "" {
			raw.OriginalPrice = models.NewPriceToken(v, models.RoleOriginal, models.SourceDisplay)
		}
	}

	if ld, ok := ReadProductLD(doc); ok {
		if raw.Name == "" {
			raw.Name = stripSuffix(ld.Name, mlTitleSuffix)
		}
		if raw.ImageURL == "" {
			raw.ImageURL = imageURL(ld.Image)
		}
		if raw.CurrentPrice == nil && ld.Price != "" {
			raw.CurrentPrice = models.NewPriceToken(ld.Price, models.RoleCurrent, models.SourceMachine)
		}
		if raw.OriginalPrice == nil && ld.HighPrice != "" {
			raw.OriginalPrice = models.NewPriceToken(ld.HighPrice, models.RoleOriginal, models.SourceMachine)
		}
	}

	return raw, nil
}

// firstAmount assembles "fraction,cents" from the first andes money container that has a fraction.
func firstAmount(doc *goquery.Document, containers []string) string {
	for _, query := range containers {
		var amount string
		doc.Find(query).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			frac := strings.TrimSpace(s.Find(".andes-money-amount__fraction").First().Text())
			if frac == "" {
				// containers like ui-pdp-price__original-value hold plain text
				amount = collapse(s.Text())
				return amount == ""
			}
			amount = frac
			if cents := strings.TrimSpace(s.Find(".andes-money-amount__cents").First().Text()); cents != "" {
				amount += "," + cents
			}
			return false
		})
		if amount != "" {
			return amount
		}
	}
	return ""
}

func (p *MercadoLivreParser) IsChallengePage(html, pageURL string) bool {
	lower := strings.ToLower(pageURL)
	return strings.Contains(lower, "account-verification") ||
		strings.Contains(lower, "/gz/suspicious") ||
		strings.Contains(lower, "captcha")
}
