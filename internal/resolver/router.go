package resolver

import (
	"fmt"
	"strings"

	"github.com/maltedev/offer-resolver/internal/models"
)

// Route maps lowercase URL substrings to a retailer.
type Route struct {
	Retailer models.Retailer
	Markers  []string
}

// DefaultTable is checked in order; the first marker found in the URL wins.
var DefaultTable = []Route{
	{Retailer: models.RetailerShopee, Markers: []string{"shopee"}},
	{Retailer: models.RetailerMagalu, Markers: []string{"magazineluiza", "magazinevoce", "magalu"}},
	{Retailer: models.RetailerMercadoLivre, Markers: []string{"mercadolivre", "mercado-livre", "mercadolibre"}},
	{Retailer: models.RetailerAmazon, Markers: []string{"amazon"}},
}

// ValidateTable rejects tables in which one URL could match two retailers: a marker that
// contains a marker of another retailer, or a retailer listed twice.
func ValidateTable(table []Route) error {
	seen := make(map[models.Retailer]bool, len(table))
	for i, route := range table {
		if seen[route.Retailer] {
			return fmt.Errorf("%w: retailer %s listed twice", ErrAmbiguousTable, route.Retailer)
		}
		seen[route.Retailer] = true

		for _, marker := range route.Markers {
			if marker == "" || marker != strings.ToLower(marker) {
				return fmt.Errorf("%w: marker %q must be non-empty lowercase", ErrAmbiguousTable, marker)
			}
			for _, other := range table[i+1:] {
				for _, otherMarker := range other.Markers {
					if strings.Contains(marker, otherMarker) || strings.Contains(otherMarker, marker) {
						return fmt.Errorf("%w: %q (%s) overlaps %q (%s)",
							ErrAmbiguousTable, marker, route.Retailer, otherMarker, other.Retailer)
					}
				}
			}
		}
	}
	return nil
}

// Classify returns the retailer of rawURL using table.
func Classify(table []Route, rawURL string) (models.Retailer, bool) {
	lower := strings.ToLower(rawURL)
	for _, route := range table {
		for _, marker := range route.Markers {
			if strings.Contains(lower, marker) {
				return route.Retailer, true
			}
		}
	}
	return "", false
}
