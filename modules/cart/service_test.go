package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/pkg/database"
	"github.com/shopspring/decimal"
)

// fakeCatalog is an in-memory ProductLookup.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]catalog.Product
}

func newFakeCatalog(products ...catalog.Product) *fakeCatalog {
	c := &fakeCatalog{products: make(map[string]catalog.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *fakeCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (c *fakeCatalog) GetProducts(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *fakeCatalog) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.products, id)
}

func product(id, price string, inStock bool) catalog.Product {
	return catalog.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString(price),
		Category: catalog.CategoryClothing,
		InStock:  inStock,
	}
}

func newTestService(t *testing.T, products *fakeCatalog) *CartService {
	t.Helper()

	db, err := database.Open(database.SQLite(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	repo := NewCartRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	serial := NewSerializer()
	t.Cleanup(func() { _ = serial.Close(context.Background()) })

	return NewCartService(repo, products, serial)
}

func TestCartService_AddMergesVariant(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "49.99", true)))

	first, merged, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 2, Size: "M", Color: "Blue"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if merged {
		t.Error("first add must not merge")
	}

	second, merged, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 3, Size: "M", Color: "Blue"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !merged {
		t.Error("second add should merge")
	}
	if second.ID != first.ID || second.Quantity != 5 {
		t.Errorf("row = %+v, want id %s qty 5", second, first.ID)
	}

	view, err := svc.View(ctx, "u1")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(view.Lines))
	}
	if view.ItemCount != 5 {
		t.Errorf("ItemCount = %d, want 5", view.ItemCount)
	}
	if !view.Total.Equal(decimal.RequireFromString("249.95")) {
		t.Errorf("Total = %s, want 249.95", view.Total)
	}
}

func TestCartService_DistinctVariants(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "10", true)))

	for _, size := range []string{"S", "M", ""} {
		if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 1, Size: size}); err != nil {
			t.Fatalf("Add(size %q) error = %v", size, err)
		}
	}

	view, err := svc.View(ctx, "u1")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 3 {
		t.Errorf("lines = %d, want 3", len(view.Lines))
	}
}

func TestCartService_AddRejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "10", true), product("2", "10", false)))

	tests := []struct {
		name     string
		item     domain.Item
		wantErr  error
		wantKind apperr.Kind
	}{
		{name: "zero quantity", item: domain.Item{ProductID: "1", Quantity: 0}, wantErr: domain.ErrInvalidQuantity, wantKind: apperr.KindValidation},
		{name: "missing product id", item: domain.Item{Quantity: 1}, wantErr: domain.ErrProductRequired, wantKind: apperr.KindValidation},
		{name: "unknown product", item: domain.Item{ProductID: "nope", Quantity: 1}, wantErr: catalog.ErrProductNotFound, wantKind: apperr.KindNotFound},
		{name: "out of stock", item: domain.Item{ProductID: "2", Quantity: 1}, wantErr: ErrOutOfStock, wantKind: apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Add(ctx, "u1", tt.item)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if got := apperr.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %s, want %s", got, tt.wantKind)
			}
		})
	}

	view, err := svc.View(ctx, "u1")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 0 {
		t.Errorf("rejected adds left %d lines", len(view.Lines))
	}
}

func TestCartService_ViewWithMissingProduct(t *testing.T) {
	ctx := context.Background()
	products := newFakeCatalog(product("1", "10", true), product("2", "5.50", true))
	svc := newTestService(t, products)

	if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 2}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "2", Quantity: 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	products.remove("1")

	view, err := svc.View(ctx, "u1")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(view.Lines))
	}
	if len(view.MissingIDs) != 1 || view.MissingIDs[0] != "1" {
		t.Errorf("MissingIDs = %v, want [1]", view.MissingIDs)
	}
	if !view.Total.Equal(decimal.RequireFromString("5.50")) {
		t.Errorf("Total = %s, want 5.50", view.Total)
	}
	if view.ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", view.ItemCount)
	}
}

func TestCartService_SetQuantity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "10", true)))

	row, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 1})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	updated, removed, err := svc.SetQuantity(ctx, "u1", row.ID, 4)
	if err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if removed || updated.Quantity != 4 {
		t.Errorf("SetQuantity() = %+v removed=%v, want qty 4", updated, removed)
	}

	_, removed, err = svc.SetQuantity(ctx, "u1", row.ID, 0)
	if err != nil {
		t.Fatalf("SetQuantity(0) error = %v", err)
	}
	if !removed {
		t.Error("quantity 0 should remove the line")
	}

	_, _, err = svc.SetQuantity(ctx, "u1", row.ID, 2)
	if !errors.Is(err, domain.ErrRowNotFound) {
		t.Errorf("SetQuantity(removed row) error = %v, want ErrRowNotFound", err)
	}
}

func TestCartService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "10", true), product("2", "20", true)))

	row, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 1})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "2", Quantity: 1}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Remove(ctx, "u1", row.ID); err != nil {
			t.Fatalf("Remove() #%d error = %v", i+1, err)
		}
	}

	view, _ := svc.View(ctx, "u1")
	if len(view.Lines) != 1 || view.Lines[0].Row.ProductID != "2" {
		t.Errorf("lines after remove = %+v, want product 2 only", view.Lines)
	}

	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}

	view, _ = svc.View(ctx, "u1")
	if len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Errorf("view after clear = %+v, want empty", view)
	}
}

func TestCartService_UserScoping(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "10", true)))

	row, _, err := svc.Add(ctx, "alice", domain.Item{ProductID: "1", Quantity: 2})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if _, _, err := svc.SetQuantity(ctx, "bob", row.ID, 9); !errors.Is(err, domain.ErrRowNotFound) {
		t.Errorf("bob SetQuantity error = %v, want ErrRowNotFound", err)
	}
	if err := svc.Remove(ctx, "bob", row.ID); err != nil {
		t.Errorf("bob Remove error = %v", err)
	}
	if err := svc.Clear(ctx, "bob"); err != nil {
		t.Errorf("bob Clear error = %v", err)
	}

	view, err := svc.View(ctx, "alice")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Row.Quantity != 2 {
		t.Errorf("alice's cart = %+v, want one line qty 2", view.Lines)
	}

	bobView, _ := svc.View(ctx, "bob")
	if len(bobView.Lines) != 0 {
		t.Errorf("bob's cart = %+v, want empty", bobView.Lines)
	}
}

func TestCartService_ConcurrentAddsMerge(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, newFakeCatalog(product("1", "1", true)))

	const adds = 20
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 1, Size: "M"}); err != nil {
				errs <- fmt.Errorf("Add() error = %w", err)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	view, err := svc.View(ctx, "u1")
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Row.Quantity != adds {
		t.Errorf("lines = %+v, want one line qty %d", view.Lines, adds)
	}
}

func TestCartService_StorageFailureIsExternal(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(database.SQLite(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	repo := NewCartRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	serial := NewSerializer()
	t.Cleanup(func() { _ = serial.Close(context.Background()) })
	svc := NewCartService(repo, newFakeCatalog(product("1", "10", true)), serial)

	if err := database.Close(db); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := svc.View(ctx, "u1"); apperr.KindOf(err) != apperr.KindExternalService {
		t.Errorf("View() kind = %q (%v), want external_service", apperr.KindOf(err), err)
	}
	if _, _, err := svc.Add(ctx, "u1", domain.Item{ProductID: "1", Quantity: 1}); apperr.KindOf(err) != apperr.KindExternalService {
		t.Errorf("Add() kind = %q (%v), want external_service", apperr.KindOf(err), err)
	}
	if err := svc.Clear(ctx, "u1"); apperr.KindOf(err) != apperr.KindExternalService {
		t.Errorf("Clear() kind = %q (%v), want external_service", apperr.KindOf(err), err)
	}
}
