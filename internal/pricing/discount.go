package pricing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var percentPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)

// NormalizeDiscount turns a scraped percent-off label ("-23%", "10% de desconto no pix")
// into "23% OFF" form. Labels without a percentage are returned trimmed.
func NormalizeDiscount(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return ""
	}

	m := percentPattern.FindStringSubmatch(label)
	if m == nil {
		return label
	}

	pct, err := decimal.NewFromString(strings.Replace(m[1], ",", ".", 1))
	if err != nil || !pct.IsPositive() {
		return label
	}

	out := fmt.Sprintf("%s%% OFF", pct.Round(0).String())
	if strings.Contains(strings.ToLower(label), "pix") {
		out += " no Pix"
	}
	return out
}

// DeriveDiscount computes the percent-off between an original and a current price, rounded
// half-up. It returns "" when there is no reduction of at least one percent.
func DeriveDiscount(current, original int64) string {
	if original <= 0 || current < 0 || current >= original {
		return ""
	}

	pct := ((original-current)*200 + original) / (2 * original)
	if pct < 1 {
		return ""
	}
	return fmt.Sprintf("%d%% OFF", pct)
}
