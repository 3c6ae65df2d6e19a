package pricing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
	"github.com/shopspring/decimal"
)

// Currency is the local currency of every supported retailer.
const Currency = "BRL"

var (
	amountPattern = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)
	hundred       = decimal.NewFromInt(100)
	spaceReplacer = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "\t", "", "\n", "")
)

// Normalize turns a raw price token into a canonical price. The second return value is false
// when the text holds no usable amount; callers treat that as an absent field.
func Normalize(tok *models.PriceToken) (*models.CanonicalPrice, bool) {
	if tok == nil {
		return nil, false
	}

	minor, ok := Parse(tok.Raw, tok.Source)
	if !ok {
		return nil, false
	}

	return FromMinorUnits(minor), true
}

// FromMinorUnits builds the canonical price for an amount in centavos.
func FromMinorUnits(minor int64) *models.CanonicalPrice {
	return &models.CanonicalPrice{
		MinorUnits: minor,
		Currency:   Currency,
		Display:    Render(minor),
	}
}

// Parse converts raw price text into minor units following the separator rules for source.
func Parse(raw string, source models.PriceSource) (int64, bool) {
	cleaned := spaceReplacer.Replace(raw)

	loc := amountPattern.FindStringIndex(cleaned)
	if loc == nil {
		return 0, false
	}
	if loc[0] > 0 && (cleaned[loc[0]-1] == '-' || strings.HasSuffix(cleaned[:loc[0]], "−")) {
		return 0, false
	}
	amount := cleaned[loc[0]:loc[1]]

	var canonical string
	switch source {
	case models.SourceMinorUnits:
		if isDigits(amount) {
			n, err := strconv.ParseInt(amount, 10, 64)
			if err != nil {
				return 0, false
			}
			return n, true
		}
		canonical = machineDecimal(amount)
	case models.SourceMachine:
		canonical = machineDecimal(amount)
	default:
		canonical = displayDecimal(amount)
	}
	if canonical == "" {
		return 0, false
	}

	d, err := decimal.NewFromString(canonical)
	if err != nil || d.IsNegative() {
		return 0, false
	}

	scaled := d.Mul(hundred).Round(0)
	if !scaled.BigInt().IsInt64() {
		return 0, false
	}
	return scaled.IntPart(), true
}

// machineDecimal reads "1234.5" style numbers. A comma means the value was not machine
// formatted after all, so the display rules apply.
func machineDecimal(s string) string {
	if strings.Contains(s, ",") {
		return displayDecimal(s)
	}
	if strings.Count(s, ".") > 1 {
		return ""
	}
	return s
}

func displayDecimal(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		lastDot := strings.LastIndex(s, ".")
		lastComma := strings.LastIndex(s, ",")
		decimalSep, thousandsSep := ",", "."
		if lastDot > lastComma {
			decimalSep, thousandsSep = ".", ","
		}
		s = strings.ReplaceAll(s, thousandsSep, "")
		if strings.Count(s, decimalSep) != 1 {
			return ""
		}
		return strings.Replace(s, decimalSep, ".", 1)

	case commas == 1:
		return strings.Replace(s, ",", ".", 1)

	case commas > 1:
		return strings.ReplaceAll(s, ",", "")

	case dots == 1:
		frac := s[strings.Index(s, ".")+1:]
		if len(frac) == 3 {
			return strings.Replace(s, ".", "", 1)
		}
		return s

	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	}

	return s
}

// Render formats minor units as "R$ 1.234,56". Parse(Render(m), SourceDisplay) == m for every m >= 0.
func Render(minor int64) string {
	if minor < 0 {
		minor = 0
	}
	major := strconv.FormatInt(minor/100, 10)
	cents := minor % 100

	var b strings.Builder
	b.WriteString("R$ ")
	for i, r := range major {
		if i > 0 && (len(major)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	if cents < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(cents, 10))
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
