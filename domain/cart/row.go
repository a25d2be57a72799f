// Package cart holds the cart row entity and the pure aggregation rules:
// merge-by-variant, view computation and quantity updates.
package cart

import (
	"strings"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
)

// NoSelection is the normalized value of an unselected size or color. It is
// equal only to itself, so an item added without a size is a different line
// from the same product added with size "M".
const NoSelection = ""

var (
	// ErrRowNotFound is returned when a row id does not exist in the user's cart.
	ErrRowNotFound = apperr.NotFound("cart item not found")
	// ErrInvalidQuantity is returned when an add carries a non-positive quantity.
	ErrInvalidQuantity = apperr.Validation("quantity must be greater than zero")
	// ErrProductRequired is returned when an add carries no product id.
	ErrProductRequired = apperr.Validation("product_id is required")
)

// Row is one stored cart line. Quantity is always positive for persisted rows.
type Row struct {
	ID            string    `gorm:"primaryKey;type:text" json:"id"`
	UserID        string    `gorm:"not null;type:text;uniqueIndex:idx_cart_variant,priority:1" json:"user_id"`
	ProductID     string    `gorm:"not null;type:text;uniqueIndex:idx_cart_variant,priority:2" json:"product_id"`
	SelectedSize  string    `gorm:"not null;default:'';type:text;uniqueIndex:idx_cart_variant,priority:3" json:"selected_size"`
	SelectedColor string    `gorm:"not null;default:'';type:text;uniqueIndex:idx_cart_variant,priority:4" json:"selected_color"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the Row entity.
func (Row) TableName() string {
	return "cart_items"
}

// Variant identifies a cart line within one user's cart.
type Variant struct {
	ProductID string
	Size      string
	Color     string
}

// NewVariant builds a normalized variant key.
func NewVariant(productID, size, color string) Variant {
	return Variant{
		ProductID: strings.TrimSpace(productID),
		Size:      NormalizeSelection(size),
		Color:     NormalizeSelection(color),
	}
}

// Variant returns the variant key of the row.
func (r Row) Variant() Variant {
	return NewVariant(r.ProductID, r.SelectedSize, r.SelectedColor)
}

// NormalizeSelection maps a size or color to its canonical form. Blank input
// becomes NoSelection.
func NormalizeSelection(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoSelection
	}
	return s
}

// Item is a request to add a quantity of one product variant.
type Item struct {
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// Validate checks the item before it is merged.
func (i Item) Validate() error {
	if strings.TrimSpace(i.ProductID) == "" {
		return ErrProductRequired
	}
	if i.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
