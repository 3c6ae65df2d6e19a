package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/offer-resolver/internal/models"
)

// Parser reads one retailer's product page markup. It is shared by the static and rendered
// strategies so both see the same marker logic.
type Parser interface {
	ParseProductPage(html, pageURL string) (*models.RawExtraction, error)
	IsChallengePage(html, pageURL string) bool
}

// Selector is one alternative in a ranked marker lookup. An empty Attr reads the text content.
type Selector struct {
	Query string
	Attr  string
}

func Text(query string) Selector {
	return Selector{Query: query}
}

func Attr(query, attr string) Selector {
	return Selector{Query: query, Attr: attr}
}

// First returns the first non-empty value produced by the selectors, in order.
func First(doc *goquery.Document, selectors []Selector) string {
	for _, sel := range selectors {
		if v := value(doc.Find(sel.Query).First(), sel.Attr); v != "" {
			return v
		}
	}
	return ""
}

func value(s *goquery.Selection, attr string) string {
	if s.Length() == 0 {
		return ""
	}
	if attr == "" {
		return collapse(s.Text())
	}
	v, _ := s.Attr(attr)
	return strings.TrimSpace(v)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// stripSuffix removes a retailer suffix like " - Magazine Luiza" from a page title.
func stripSuffix(title string, pattern *regexp.Regexp) string {
	if pattern == nil {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(pattern.ReplaceAllString(title, ""))
}

// imageURL rejects inline data URIs, which are lazy-load placeholders rather than images.
func imageURL(v string) string {
	if v == "" || strings.HasPrefix(v, "data:") {
		return ""
	}
	return v
}

func firstImage(doc *goquery.Document, selectors []Selector) string {
	for _, sel := range selectors {
		if v := imageURL(value(doc.Find(sel.Query).First(), sel.Attr)); v != "" {
			return v
		}
	}
	return ""
}

// ProductLD is the subset of a schema.org Product block the extractors use.
type ProductLD struct {
	Name      string
	Image     string
	Price     string
	LowPrice  string
	HighPrice string
}

// ReadProductLD returns the first schema.org Product found in JSON-LD scripts.
func ReadProductLD(doc *goquery.Document) (*ProductLD, bool) {
	var found *ProductLD
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		dec := json.NewDecoder(bytes.NewReader([]byte(s.Text())))
		dec.UseNumber()

		var v any
		if err := dec.Decode(&v); err != nil {
			return true
		}
		if p := findProduct(v); p != nil {
			found = p
			return false
		}
		return true
	})
	return found, found != nil
}

func findProduct(v any) *ProductLD {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if p := findProduct(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return productFromMap(node)
		}
		if graph, ok := node["@graph"]; ok {
			return findProduct(graph)
		}
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func productFromMap(m map[string]any) *ProductLD {
	p := &ProductLD{
		Name:  scalar(m["name"]),
		Image: ldImage(m["image"]),
	}

	offers := m["offers"]
	if list, ok := offers.([]any); ok && len(list) > 0 {
		offers = list[0]
	}
	if o, ok := offers.(map[string]any); ok {
		p.Price = scalar(o["price"])
		p.LowPrice = scalar(o["lowPrice"])
		p.HighPrice = scalar(o["highPrice"])
	}
	return p
}

func ldImage(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case []any:
		if len(img) > 0 {
			return ldImage(img[0])
		}
	case map[string]any:
		return scalar(img["url"])
	}
	return ""
}

func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	}
	return ""
}
