package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// SortKey selects the ordering of a filtered product list.
type SortKey string

const (
	SortFeatured     SortKey = "featured"
	SortPriceLowHigh SortKey = "price-low-high"
	SortPriceHighLow SortKey = "price-high-low"
	SortRating       SortKey = "rating"

	DefaultSortKey = SortFeatured
)

// ParseSortKey returns the sort key for s. An empty string selects the
// default; any other unknown value is rejected.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case "":
		return DefaultSortKey, true
	case SortFeatured, SortPriceLowHigh, SortPriceHighLow, SortRating:
		return SortKey(s), true
	}
	return "", false
}

// Criteria holds the predicates and sort key applied by Filter.
// MinPrice and MaxPrice are inclusive; an invalid (unset) bound is open.
type Criteria struct {
	Category     string
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	Sizes        []string
	Search       string
	FeaturedOnly bool
	Sort         SortKey
}

// Matches reports whether p passes every predicate of c.
func (c Criteria) Matches(p Product) bool {
	if c.Category != "" && c.Category != CategoryAll && p.Category != c.Category {
		return false
	}
	if c.MinPrice.Valid && p.Price.LessThan(c.MinPrice.Decimal) {
		return false
	}
	if c.MaxPrice.Valid && p.Price.GreaterThan(c.MaxPrice.Decimal) {
		return false
	}
	if len(c.Sizes) > 0 && !intersects(p.Sizes, c.Sizes) {
		return false
	}
	if c.FeaturedOnly && !p.Featured {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// Filter returns the products that match c, ordered by c.Sort. The input is
// not modified. Filtering an already filtered list with the same criteria
// returns the same list.
func Filter(products []Product, c Criteria) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	Sort(out, c.Sort)
	return out
}

// Sort orders products in place. All orderings are stable; ties keep the
// input order. Featured ordering puts featured products first.
func Sort(products []Product, key SortKey) {
	slices.SortStableFunc(products, comparator(key))
}

func comparator(key SortKey) func(a, b Product) int {
	switch key {
	case SortPriceLowHigh:
		return func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceHighLow:
		return func(a, b Product) int { return b.Price.Cmp(a.Price) }
	case SortRating:
		return func(a, b Product) int { return cmp.Compare(b.RatingOrZero(), a.RatingOrZero()) }
	default:
		return func(a, b Product) int { return featuredRank(a) - featuredRank(b) }
	}
}

func featuredRank(p Product) int {
	if p.Featured {
		return 0
	}
	return 1
}

func intersects(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// ParseSizes splits a comma separated size list, dropping blanks and
// upper-casing entries.
func ParseSizes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var sizes []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			sizes = append(sizes, part)
		}
	}
	return sizes
}
