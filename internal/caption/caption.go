package caption

import (
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
)

const PriceUnavailable = "price unavailable"

var notices = map[models.Status]string{
	models.StatusBlocked:            "⚠️ the store is blocking automated access right now, try again later",
	models.StatusFailed:             "⚠️ extraction failed, open the link for details",
	models.StatusUnsupported:        "⚠️ unsupported store",
	models.StatusMissingCredentials: "⚠️ affiliate credentials are required for this store",
}

// Compose renders a record as display text: title, prices, optional installments and
// status notice, then the link. It never returns an empty string.
func Compose(rec *models.ProductRecord) string {
	if rec == nil {
		rec = &models.ProductRecord{}
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = models.PlaceholderTitle
	}

	lines := []string{"📦 " + title, "💰 " + priceLine(rec)}

	if rec.Installments != "" {
		lines = append(lines, "💳 "+rec.Installments)
	}
	if notice, ok := notices[rec.Status]; ok {
		lines = append(lines, notice)
	}
	if rec.URL != "" {
		lines = append(lines, "🔗 "+rec.URL)
	}

	return strings.Join(lines, "\n")
}

func priceLine(rec *models.ProductRecord) string {
	switch {
	case rec.Price != nil && rec.OriginalPrice != nil:
		line := rec.OriginalPrice.Display + " → " + rec.Price.Display
		if rec.Discount != "" {
			line += " | " + rec.Discount
		}
		return line
	case rec.Price != nil:
		if rec.Discount != "" {
			return rec.Price.Display + " | " + rec.Discount
		}
		return rec.Price.Display
	default:
		return PriceUnavailable
	}
}
