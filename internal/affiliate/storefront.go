package affiliate

import (
	"net/url"
	"regexp"
	"strings"
)

const magazineVoceHost = "www.magazinevoce.com.br"

var amazonASIN = regexp.MustCompile(`(?i)/(?:dp|gp/product|gp/aw/d|d)/([A-Z0-9]{10})(?:[/?]|$)`)

// FormatMagaluStoreID normalizes a storefront id to the "in_603815" form.
func FormatMagaluStoreID(storeID string) string {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" || strings.Contains(storeID, "_") || len(storeID) < 3 {
		return storeID
	}
	return storeID[:2] + "_" + storeID[2:]
}

// MagaluStorefront rewrites Magazine Luiza product URLs onto a tenant's magazinevoce storefront.
type MagaluStorefront struct {
	storeID string
}

func NewMagaluStorefront(storeID string) *MagaluStorefront {
	return &MagaluStorefront{storeID: FormatMagaluStoreID(storeID)}
}

// Rewrite returns the storefront URL for rawURL with the query stripped. URLs already on
// magazinevoce only lose their query. Without a store id the URL is returned unchanged.
func (m *MagaluStorefront) Rewrite(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}

	if strings.Contains(strings.ToLower(u.Host), "magazinevoce.com.br") {
		return stripQuery(u)
	}
	if m.storeID == "" {
		return rawURL
	}

	u.Scheme = "https"
	u.Host = magazineVoceHost
	u.Path = "/magazine" + m.storeID + u.Path
	return stripQuery(u)
}

func stripQuery(u *url.URL) string {
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ExtractASIN reads the 10 character product id from an Amazon URL.
func ExtractASIN(rawURL string) (string, bool) {
	m := amazonASIN.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// AmazonTagger builds canonical associate links.
type AmazonTagger struct {
	tag string
}

func NewAmazonTagger(tag string) *AmazonTagger {
	return &AmazonTagger{tag: strings.TrimSpace(tag)}
}

// Tag returns https://<host>/dp/<ASIN>?tag=<tag>, or "" when no tag is configured or no ASIN is found.
func (a *AmazonTagger) Tag(rawURL string) string {
	if a.tag == "" {
		return ""
	}
	asin, ok := ExtractASIN(rawURL)
	if !ok {
		return ""
	}

	host := "www.amazon.com.br"
	if u, err := url.Parse(rawURL); err == nil && strings.Contains(strings.ToLower(u.Host), "amazon.") {
		host = strings.ToLower(u.Host)
	}

	return (&url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     "/dp/" + asin,
		RawQuery: url.Values{"tag": {a.tag}}.Encode(),
	}).String()
}
