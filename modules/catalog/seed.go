package catalog

import (
	"time"

	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/shopspring/decimal"
)

func rating(v float64) *float64 { return &v }

// SeedProducts returns the starter catalog loaded into an empty store.
// CreatedAt is spaced one second apart, ending just before now, so the seed
// order is stable and precedes anything created later.
func SeedProducts(now time.Time) []domain.Product {
	products := []domain.Product{
		{
			ID:          "1",
			Name:        "Elegant Summer Dress",
			Description: "Beautiful floral pattern dress perfect for summer outings.",
			Price:       decimal.RequireFromString("69.99"),
			Category:    domain.CategoryClothing,
			Sizes:       []string{"S", "M", "L", "XL"},
			Colors:      []string{"White", "Blue", "Pink"},
			Featured:    true,
			Rating:      rating(4.5),
		},
		{
			ID:          "2",
			Name:        "Classic Denim Jacket",
			Description: "Versatile denim jacket that goes with any outfit.",
			Price:       decimal.RequireFromString("89.99"),
			Category:    domain.CategoryClothing,
			Sizes:       []string{"S", "M", "L", "XL", "XXL"},
			Colors:      []string{"Blue", "Black"},
			Rating:      rating(4.2),
		},
		{
			ID:          "3",
			Name:        "Premium Leather Handbag",
			Description: "Handcrafted leather handbag with gold accents.",
			Price:       decimal.RequireFromString("149.99"),
			Category:    domain.CategoryAccessories,
			Colors:      []string{"Brown", "Black", "Tan"},
			Featured:    true,
			Rating:      rating(4.7),
		},
		{
			ID:          "4",
			Name:        "Luxury Lipstick Set",
			Description: "Set of 3 premium long-lasting lipsticks.",
			Price:       decimal.RequireFromString("45.99"),
			Category:    domain.CategoryMakeup,
			Colors:      []string{"Red", "Nude", "Berry"},
			Rating:      rating(4.8),
		},
		{
			ID:          "5",
			Name:        "Men's Tailored Blazer",
			Description: "Sophisticated blazer for formal and casual occasions.",
			Price:       decimal.RequireFromString("129.99"),
			Category:    domain.CategoryMensClothing,
			Sizes:       []string{"S", "M", "L", "XL", "XXL"},
			Colors:      []string{"Navy", "Charcoal", "Black"},
			Featured:    true,
			Rating:      rating(4.6),
		},
		{
			ID:          "6",
			Name:        "Statement Earrings",
			Description: "Eye-catching earrings with crystal details.",
			Price:       decimal.RequireFromString("34.99"),
			Category:    domain.CategoryAccessories,
			Colors:      []string{"Silver", "Gold"},
			Rating:      rating(4.3),
		},
		{
			ID:          "7",
			Name:        "Hydrating Foundation",
			Description: "Full coverage foundation with SPF 30.",
			Price:       decimal.RequireFromString("38.99"),
			Category:    domain.CategoryMakeup,
			Colors:      []string{"Fair", "Medium", "Tan", "Deep"},
			Featured:    true,
			Rating:      rating(4.5),
		},
		{
			ID:          "8",
			Name:        "Men's Cotton T-Shirt",
			Description: "Premium cotton t-shirt for everyday wear.",
			Price:       decimal.RequireFromString("29.99"),
			Category:    domain.CategoryMensClothing,
			Sizes:       []string{"S", "M", "L", "XL", "XXL"},
			Colors:      []string{"White", "Black", "Gray", "Navy"},
			Rating:      rating(4.4),
		},
	}

	for i := range products {
		products[i].Images = []string{"/placeholder.svg"}
		products[i].InStock = true
		products[i].CreatedAt = now.Add(time.Duration(i-len(products)) * time.Second)
		products[i].UpdatedAt = products[i].CreatedAt
	}
	return products
}
