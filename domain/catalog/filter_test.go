package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func rating(r float64) *float64 { return &r }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func bound(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: price(s), Valid: true}
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func sameIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func sampleProducts() []Product {
	return []Product{
		{ID: "1", Name: "Elegant Summer Dress", Description: "Beautiful floral pattern dress perfect for summer outings.", Price: price("69.99"), Category: CategoryClothing, Sizes: []string{"S", "M", "L", "XL"}, Featured: true, Rating: rating(4.5)},
		{ID: "2", Name: "Classic Denim Jacket", Description: "Versatile denim jacket that goes with any outfit.", Price: price("89.99"), Category: CategoryClothing, Sizes: []string{"S", "M", "L", "XL", "XXL"}, Rating: rating(4.2)},
		{ID: "3", Name: "Premium Leather Handbag", Description: "Handcrafted leather handbag with gold accents.", Price: price("149.99"), Category: CategoryAccessories, Featured: true, Rating: rating(4.7)},
		{ID: "4", Name: "Luxury Lipstick Set", Description: "Set of 3 premium long-lasting lipsticks.", Price: price("45.99"), Category: CategoryMakeup, Rating: rating(4.8)},
		{ID: "5", Name: "Men's Tailored Blazer", Description: "Sophisticated blazer for formal and casual occasions.", Price: price("129.99"), Category: CategoryMensClothing, Sizes: []string{"M", "L", "XL", "XXL"}},
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{
			name:     "no constraints keeps featured first",
			criteria: Criteria{Category: CategoryAll},
			want:     []string{"1", "3", "2", "4", "5"},
		},
		{
			name:     "clothing sorted by price low to high",
			criteria: Criteria{Category: CategoryClothing, Sort: SortPriceLowHigh},
			want:     []string{"1", "2"},
		},
		{
			name:     "price high to low",
			criteria: Criteria{Sort: SortPriceHighLow},
			want:     []string{"3", "5", "2", "1", "4"},
		},
		{
			name:     "rating treats missing as zero",
			criteria: Criteria{Sort: SortRating},
			want:     []string{"4", "3", "1", "2", "5"},
		},
		{
			name:     "inclusive price bounds",
			criteria: Criteria{MinPrice: bound("69.99"), MaxPrice: bound("129.99"), Sort: SortPriceLowHigh},
			want:     []string{"1", "2", "5"},
		},
		{
			name:     "sizes intersect",
			criteria: Criteria{Sizes: []string{"XXL"}, Sort: SortPriceLowHigh},
			want:     []string{"2", "5"},
		},
		{
			name:     "sizes exclude products without sizes",
			criteria: Criteria{Category: CategoryAccessories, Sizes: []string{"M"}},
			want:     []string{},
		},
		{
			name:     "search matches name case-insensitively",
			criteria: Criteria{Search: "DENIM"},
			want:     []string{"2"},
		},
		{
			name:     "search matches description",
			criteria: Criteria{Search: "gold accents"},
			want:     []string{"3"},
		},
		{
			name:     "featured only",
			criteria: Criteria{FeaturedOnly: true, Sort: SortPriceHighLow},
			want:     []string{"3", "1"},
		},
		{
			name:     "unknown category matches nothing",
			criteria: Criteria{Category: "shoes"},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleProducts(), tt.criteria))
			if !sameIDs(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	criteria := []Criteria{
		{Category: CategoryClothing, Sort: SortPriceLowHigh},
		{Sort: SortRating},
		{Search: "e", Sort: SortFeatured},
		{MinPrice: bound("50"), Sort: SortPriceHighLow},
	}

	for _, c := range criteria {
		once := Filter(sampleProducts(), c)
		twice := Filter(once, c)
		if !sameIDs(ids(once), ids(twice)) {
			t.Errorf("Filter(Filter(x)) = %v, want %v (criteria %+v)", ids(twice), ids(once), c)
		}
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	products := sampleProducts()
	before := ids(products)

	Filter(products, Criteria{Sort: SortPriceHighLow})

	if !sameIDs(ids(products), before) {
		t.Errorf("input reordered to %v, want %v", ids(products), before)
	}
}

func TestSort_FeaturedStable(t *testing.T) {
	products := []Product{
		{ID: "a"}, {ID: "b", Featured: true}, {ID: "c"}, {ID: "d", Featured: true}, {ID: "e"},
	}

	Sort(products, SortFeatured)

	want := []string{"b", "d", "a", "c", "e"}
	if got := ids(products); !sameIDs(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestSort_PriceTiesKeepInputOrder(t *testing.T) {
	products := []Product{
		{ID: "x", Price: price("10")},
		{ID: "y", Price: price("5")},
		{ID: "z", Price: price("10.00")},
	}

	Sort(products, SortPriceLowHigh)

	want := []string{"y", "x", "z"}
	if got := ids(products); !sameIDs(got, want) {
		t.Errorf("Sort() = %v, want %v", got, want)
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in     string
		want   SortKey
		wantOK bool
	}{
		{"", SortFeatured, true},
		{"featured", SortFeatured, true},
		{"price-low-high", SortPriceLowHigh, true},
		{"price-high-low", SortPriceHighLow, true},
		{"rating", SortRating, true},
		{"newest", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSortKey(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseSortKey(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseSizes(t *testing.T) {
	got := ParseSizes(" m, ,xl,L ")
	want := []string{"M", "XL", "L"}
	if !sameIDs(got, want) {
		t.Errorf("ParseSizes() = %v, want %v", got, want)
	}
	if ParseSizes("  ") != nil {
		t.Error("ParseSizes(blank) should be nil")
	}
}
