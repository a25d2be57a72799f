package catalog

import (
	"strings"

	"github.com/example/glamup-shop-verse/domain/apperr"
)

// Validation errors returned by Validate.
var (
	ErrNameRequired        = apperr.Validation("name is required")
	ErrDescriptionRequired = apperr.Validation("description is required")
	ErrPriceNotPositive    = apperr.Validation("price must be greater than zero")
	ErrInvalidCategory     = apperr.Validation("category must be one of clothing, accessories, makeup, mens-clothing")
	ErrInvalidSize         = apperr.Validation("sizes must be among S, M, L, XL, XXL")
	ErrInvalidRating       = apperr.Validation("rating must be between 0 and 5")
	ErrInvalidSortKey      = apperr.Validation("sort must be one of featured, price-low-high, price-high-low, rating")
	ErrInvalidPriceRange   = apperr.Validation("price bounds must not be negative")

	// ErrProductNotFound is returned when a product id does not resolve.
	ErrProductNotFound = apperr.NotFound("product not found")
)

// Normalize trims text fields and drops blank list entries.
func Normalize(p *Product) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Category = strings.TrimSpace(p.Category)
	p.Images = compact(p.Images, false)
	p.Sizes = compact(p.Sizes, true)
	p.Colors = compact(p.Colors, false)
}

// Validate checks the fields an admin must provide. It is run on the whole
// product before any write, so a failing create or update persists nothing.
func Validate(p Product) error {
	switch {
	case p.Name == "":
		return ErrNameRequired
	case p.Description == "":
		return ErrDescriptionRequired
	case !p.Price.IsPositive():
		return ErrPriceNotPositive
	case !ValidCategory(p.Category):
		return ErrInvalidCategory
	}
	for _, s := range p.Sizes {
		if !ValidSize(s) {
			return ErrInvalidSize
		}
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return ErrInvalidRating
	}
	return nil
}

func compact(values []string, upper bool) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if upper {
			v = strings.ToUpper(v)
		}
		out = append(out, v)
	}
	return out
}
