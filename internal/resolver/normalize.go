package resolver

import (
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/maltedev/offer-resolver/internal/pricing"
)

// Normalize maps a raw extraction onto the canonical record. It sets neither ID,
// status nor caption.
func Normalize(raw *models.RawExtraction, fallbackURL string) *models.ProductRecord {
	if raw == nil {
		raw = &models.RawExtraction{}
	}

	rec := &models.ProductRecord{
		Retailer:     raw.Retailer,
		Title:        strings.TrimSpace(raw.Name),
		ImageURL:     absoluteImage(strings.TrimSpace(raw.ImageURL)),
		Installments: strings.TrimSpace(raw.Installments),
		Attempts:     raw.Attempts,
	}
	if rec.Title == "" {
		rec.Title = models.PlaceholderTitle
	}

	if price, ok := pricing.Normalize(raw.CurrentPrice); ok {
		rec.Price = price
	}
	// an original price below the current one is a bad scrape
	if original, ok := pricing.Normalize(raw.OriginalPrice); ok && rec.Price != nil && original.MinorUnits >= rec.Price.MinorUnits {
		rec.OriginalPrice = original
	}

	switch {
	case strings.TrimSpace(raw.DiscountText) != "":
		rec.Discount = pricing.NormalizeDiscount(raw.DiscountText)
	case rec.OriginalPrice != nil:
		rec.Discount = pricing.DeriveDiscount(rec.Price.MinorUnits, rec.OriginalPrice.MinorUnits)
	}

	rec.URL = firstNonEmpty(raw.AffiliateURL, raw.ResolvedURL, fallbackURL)

	return rec
}

// Status classifies a normalized record.
func Status(raw *models.RawExtraction, rec *models.ProductRecord) models.Status {
	hasTitle := rec.Title != "" && rec.Title != models.PlaceholderTitle
	switch {
	case raw != nil && raw.Blocked && !(hasTitle && rec.Price != nil):
		return models.StatusBlocked
	case hasTitle && rec.Price != nil:
		return models.StatusOK
	case hasTitle || rec.Price != nil || rec.ImageURL != "":
		return models.StatusPartial
	default:
		return models.StatusFailed
	}
}

func absoluteImage(src string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	return src
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
