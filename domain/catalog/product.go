// Package catalog provides the product entity and the catalog filter pipeline.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category values accepted for products.
const (
	CategoryClothing     = "clothing"
	CategoryAccessories  = "accessories"
	CategoryMakeup       = "makeup"
	CategoryMensClothing = "mens-clothing"

	// CategoryAll disables the category predicate.
	CategoryAll = "all"
)

// Categories lists every product category in display order.
var Categories = []string{CategoryClothing, CategoryAccessories, CategoryMakeup, CategoryMensClothing}

// Sizes lists the clothing sizes in display order.
var Sizes = []string{"S", "M", "L", "XL", "XXL"}

// Product is a catalog item. Prices are in the canonical currency (USD).
type Product struct {
	ID          string          `gorm:"primaryKey;type:text" json:"id"`
	Name        string          `gorm:"not null;type:text" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"index;not null;type:text" json:"category"`
	Images      []string        `gorm:"serializer:json" json:"images"`
	Sizes       []string        `gorm:"serializer:json" json:"sizes,omitempty"`
	Colors      []string        `gorm:"serializer:json" json:"colors,omitempty"`
	InStock     bool            `gorm:"not null" json:"in_stock"`
	Featured    bool            `gorm:"not null" json:"featured"`
	Rating      *float64        `json:"rating,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Product entity.
func (Product) TableName() string {
	return "products"
}

// PrimaryImage returns the first image URL, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// RatingOrZero returns the rating, treating a missing rating as 0.
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// ValidCategory reports whether c is a known product category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidSize reports whether s is a known clothing size.
func ValidSize(s string) bool {
	for _, known := range Sizes {
		if s == known {
			return true
		}
	}
	return false
}
