package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/pkg/database"
	"github.com/shopspring/decimal"
)

// memCache is an in-process cache.CacheService storing JSON like Redis does.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, time.Minute)
}

func (c *memCache) SetWithTTL(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]byte)
	return nil
}

func (c *memCache) Close() error { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func newTestService(t *testing.T, withCache bool) (*CatalogService, *memCache) {
	t.Helper()

	db, err := database.Open(database.SQLite(":memory:"))
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	repo := NewProductRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var svc *CatalogService
	var mc *memCache
	if withCache {
		mc = newMemCache()
		svc = NewCatalogService(repo, mc)
	} else {
		svc = NewCatalogService(repo, nil)
	}

	if _, err := svc.SeedIfEmpty(context.Background()); err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	return svc, mc
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCatalogService_SeedIfEmpty(t *testing.T) {
	svc, _ := newTestService(t, false)

	n, err := svc.SeedIfEmpty(context.Background())
	if err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	if n != 0 {
		t.Errorf("SeedIfEmpty() on a seeded store = %d, want 0", n)
	}

	all, err := svc.List(context.Background(), domain.Criteria{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 8 {
		t.Errorf("List() = %d products, want 8", len(all))
	}
}

func TestCatalogService_List(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	tests := []struct {
		name     string
		criteria domain.Criteria
		want     []string
	}{
		{
			name:     "clothing by price",
			criteria: domain.Criteria{Category: domain.CategoryClothing, Sort: domain.SortPriceLowHigh},
			want:     []string{"1", "2"},
		},
		{
			name:     "featured first keeps insertion order",
			criteria: domain.Criteria{Sort: domain.SortFeatured},
			want:     []string{"1", "3", "5", "7", "2", "4", "6", "8"},
		},
		{
			name:     "size XXL under 100",
			criteria: domain.Criteria{Sizes: []string{"XXL"}, MaxPrice: decimal.NewNullDecimal(decimal.NewFromInt(100)), Sort: domain.SortPriceHighLow},
			want:     []string{"2", "8"},
		},
		{
			name:     "search description",
			criteria: domain.Criteria{Search: "spf"},
			want:     []string{"7"},
		},
		{
			name:     "best rated accessories",
			criteria: domain.Criteria{Category: domain.CategoryAccessories, Sort: domain.SortRating},
			want:     []string{"3", "6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.criteria)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if ids := productIDs(got); !equalIDs(ids, tt.want) {
				t.Errorf("List() = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestCatalogService_ListRejectsNegativeBound(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.List(context.Background(), domain.Criteria{MinPrice: decimal.NewNullDecimal(decimal.NewFromInt(-1))})
	if !errors.Is(err, domain.ErrInvalidPriceRange) {
		t.Errorf("List() error = %v, want %v", err, domain.ErrInvalidPriceRange)
	}
}

func TestCatalogService_CacheAside(t *testing.T) {
	svc, mc := newTestService(t, true)
	ctx := context.Background()

	if _, err := svc.List(ctx, domain.Criteria{}); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if !mc.has(listCacheKey) {
		t.Fatal("List() did not fill the cache")
	}

	created, err := svc.Create(ctx, ProductInput{
		Name:        "Velvet Clutch",
		Description: "Evening clutch in crushed velvet.",
		Price:       decimal.RequireFromString("59.50"),
		Category:    domain.CategoryAccessories,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if mc.has(listCacheKey) {
		t.Error("Create() did not invalidate the list entry")
	}

	all, err := svc.List(ctx, domain.Criteria{Category: domain.CategoryAccessories})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ids := productIDs(all); !equalIDs(ids, []string{"3", "6", created.ID}) {
		t.Errorf("List() after create = %v", ids)
	}
	if !created.InStock {
		t.Error("Create() without in_stock should default to in stock")
	}
}

func TestCatalogService_StaleFillIsDiscarded(t *testing.T) {
	svc, mc := newTestService(t, true)
	ctx := context.Background()

	observed := svc.version.Load()
	svc.invalidate(ctx)
	svc.fill(ctx, observed, listCacheKey, []domain.Product{})

	if mc.has(listCacheKey) {
		t.Error("fill() wrote a value read before the last write")
	}

	svc.fill(ctx, svc.version.Load(), listCacheKey, []domain.Product{})
	if !mc.has(listCacheKey) {
		t.Error("fill() at the current version was not written")
	}
}

func TestCatalogService_Get(t *testing.T) {
	svc, mc := newTestService(t, true)
	ctx := context.Background()

	p, err := svc.Get(ctx, "3")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Name != "Premium Leather Handbag" || !p.Price.Equal(decimal.RequireFromString("149.99")) {
		t.Errorf("Get() = %s %s", p.Name, p.Price)
	}
	if !mc.has(productCacheKey("3")) {
		t.Error("Get() did not fill the cache")
	}

	cached, err := svc.Get(ctx, "3")
	if err != nil {
		t.Fatalf("Get() cached error = %v", err)
	}
	if cached.Name != p.Name || !cached.Price.Equal(p.Price) {
		t.Errorf("cached Get() = %+v, want %+v", cached, p)
	}

	_, err = svc.Get(ctx, "missing")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("Get(missing) error = %v, want %v", err, domain.ErrProductNotFound)
	}
}

func TestCatalogService_GetMany(t *testing.T) {
	svc, _ := newTestService(t, false)

	found, err := svc.GetMany(context.Background(), []string{"1", "gone", "8"})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("GetMany() = %d products, want 2", len(found))
	}
	if _, ok := found["gone"]; ok {
		t.Error("GetMany() resolved an unknown id")
	}
}

func TestCatalogService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	bad := 7.0
	tests := []struct {
		name    string
		in      ProductInput
		wantErr error
	}{
		{
			name:    "missing name",
			in:      ProductInput{Description: "d", Price: decimal.NewFromInt(10), Category: domain.CategoryMakeup},
			wantErr: domain.ErrNameRequired,
		},
		{
			name:    "missing description",
			in:      ProductInput{Name: "n", Price: decimal.NewFromInt(10), Category: domain.CategoryMakeup},
			wantErr: domain.ErrDescriptionRequired,
		},
		{
			name:    "zero price",
			in:      ProductInput{Name: "n", Description: "d", Category: domain.CategoryMakeup},
			wantErr: domain.ErrPriceNotPositive,
		},
		{
			name:    "unknown category",
			in:      ProductInput{Name: "n", Description: "d", Price: decimal.NewFromInt(10), Category: "shoes"},
			wantErr: domain.ErrInvalidCategory,
		},
		{
			name:    "unknown size",
			in:      ProductInput{Name: "n", Description: "d", Price: decimal.NewFromInt(10), Category: domain.CategoryClothing, Sizes: []string{"XS"}},
			wantErr: domain.ErrInvalidSize,
		},
		{
			name:    "rating out of range",
			in:      ProductInput{Name: "n", Description: "d", Price: decimal.NewFromInt(10), Category: domain.CategoryClothing, Rating: &bad},
			wantErr: domain.ErrInvalidRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	n, err := svc.repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 8 {
		t.Errorf("Count() = %d after rejected creates, want 8", n)
	}
}

func TestCatalogService_Update(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	// warm the cache so the update has something to invalidate
	if _, err := svc.Get(ctx, "2"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	price := decimal.RequireFromString("79.99")
	sizes := []string{" m ", "l"}
	updated, err := svc.Update(ctx, "2", ProductPatch{Price: &price, Sizes: &sizes})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Price.Equal(price) || !equalIDs(updated.Sizes, []string{"M", "L"}) {
		t.Errorf("Update() = %s %v", updated.Price, updated.Sizes)
	}
	if updated.Name != "Classic Denim Jacket" {
		t.Errorf("Update() changed an unset field: %q", updated.Name)
	}

	got, err := svc.Get(ctx, "2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Price.Equal(price) {
		t.Errorf("Get() after update price = %s, want %s", got.Price, price)
	}

	negative := decimal.NewFromInt(-5)
	if _, err := svc.Update(ctx, "2", ProductPatch{Price: &negative}); !errors.Is(err, domain.ErrPriceNotPositive) {
		t.Errorf("Update(negative) error = %v, want %v", err, domain.ErrPriceNotPositive)
	}
	got, _ = svc.Get(ctx, "2")
	if !got.Price.Equal(price) {
		t.Errorf("rejected Update() wrote price %s", got.Price)
	}

	if _, err := svc.Update(ctx, "missing", ProductPatch{Price: &price}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("Update(missing) kind = %v, want %v", apperr.KindOf(err), apperr.KindNotFound)
	}
}

func TestCatalogService_UpdateClearsRating(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	rated := 3.5
	updated, err := svc.Update(ctx, "2", ProductPatch{Rating: &rated})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Rating == nil || *updated.Rating != rated {
		t.Fatalf("Update() rating = %v, want %v", updated.Rating, rated)
	}

	if _, err := svc.Update(ctx, "2", ProductPatch{Rating: &rated, ClearRating: true}); err != nil {
		t.Fatalf("Update(clear) error = %v", err)
	}
	got, err := svc.Get(ctx, "2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Rating != nil {
		t.Errorf("Get() rating = %v, want cleared", *got.Rating)
	}
}

func TestCatalogService_Delete(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "4"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := svc.Delete(ctx, "4"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.Get(ctx, "4"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrProductNotFound)
	}
	if err := svc.Delete(ctx, "4"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, domain.ErrProductNotFound)
	}

	all, err := svc.List(ctx, domain.Criteria{Category: domain.CategoryMakeup})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if ids := productIDs(all); !equalIDs(ids, []string{"7"}) {
		t.Errorf("List() after delete = %v, want [7]", ids)
	}
}

func TestListProductsRequest_Criteria(t *testing.T) {
	lower := decimal.NewFromInt(10)
	req := ListProductsRequest{Category: domain.CategoryClothing, MinPrice: &lower, Sort: "rating"}

	c, err := req.Criteria()
	if err != nil {
		t.Fatalf("Criteria() error = %v", err)
	}
	if !c.MinPrice.Valid || !c.MinPrice.Decimal.Equal(lower) || c.MaxPrice.Valid {
		t.Errorf("Criteria() price bounds = %+v, %+v", c.MinPrice, c.MaxPrice)
	}
	if c.Sort != domain.SortRating {
		t.Errorf("Criteria().Sort = %v, want %v", c.Sort, domain.SortRating)
	}

	back := listRequestOf(c)
	if back.MinPrice == nil || !back.MinPrice.Equal(lower) || back.MaxPrice != nil {
		t.Errorf("listRequestOf() = %+v", back)
	}

	if _, err := (ListProductsRequest{Sort: "cheapest"}).Criteria(); !errors.Is(err, domain.ErrInvalidSortKey) {
		t.Errorf("Criteria() error = %v, want %v", err, domain.ErrInvalidSortKey)
	}
}
