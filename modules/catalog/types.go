package catalog

import (
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/shopspring/decimal"
)

// ListProductsRequest carries the catalog filter criteria. Sort must be a
// known key or empty.
type ListProductsRequest struct {
	Category     string           `json:"category,omitempty"`
	MinPrice     *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice     *decimal.Decimal `json:"max_price,omitempty"`
	Sizes        []string         `json:"sizes,omitempty"`
	Search       string           `json:"search,omitempty"`
	FeaturedOnly bool             `json:"featured_only,omitempty"`
	Sort         string           `json:"sort,omitempty"`
}

// Criteria converts the request into filter criteria.
func (r ListProductsRequest) Criteria() (domain.Criteria, error) {
	sort, ok := domain.ParseSortKey(r.Sort)
	if !ok {
		return domain.Criteria{}, domain.ErrInvalidSortKey
	}
	return domain.Criteria{
		Category:     r.Category,
		MinPrice:     nullDecimal(r.MinPrice),
		MaxPrice:     nullDecimal(r.MaxPrice),
		Sizes:        r.Sizes,
		Search:       r.Search,
		FeaturedOnly: r.FeaturedOnly,
		Sort:         sort,
	}, nil
}

// listRequestOf is the inverse of Criteria.
func listRequestOf(c domain.Criteria) ListProductsRequest {
	return ListProductsRequest{
		Category:     c.Category,
		MinPrice:     decimalPtr(c.MinPrice),
		MaxPrice:     decimalPtr(c.MaxPrice),
		Sizes:        c.Sizes,
		Search:       c.Search,
		FeaturedOnly: c.FeaturedOnly,
		Sort:         string(c.Sort),
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

// ProductsResponse carries a product list.
type ProductsResponse struct {
	Products  []domain.Product `json:"products"`
	Count     int              `json:"count"`
	ErrorCode string           `json:"error_code,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// GetProductRequest selects one product.
type GetProductRequest struct {
	ID string `json:"id"`
}

// GetProductsRequest selects several products by id.
type GetProductsRequest struct {
	IDs []string `json:"ids"`
}

// ProductResponse carries one product.
type ProductResponse struct {
	Product   *domain.Product `json:"product,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// CreateProductRequest carries a new product.
type CreateProductRequest struct {
	Product ProductInput `json:"product"`
}

// UpdateProductRequest carries a partial update of product ID.
type UpdateProductRequest struct {
	ID    string       `json:"id"`
	Patch ProductPatch `json:"patch"`
}

// DeleteProductRequest selects the product to delete.
type DeleteProductRequest struct {
	ID string `json:"id"`
}

// AckResponse acknowledges an operation without a payload.
type AckResponse struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}
