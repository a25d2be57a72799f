package catalog

import (
	"context"
	"encoding/json"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CatalogPort is the interface other modules use to reach the catalog.
type CatalogPort interface {
	ListProducts(ctx context.Context, c domain.Criteria) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CatalogAdapter implements CatalogPort using the service container.
type CatalogAdapter struct {
	container mono.ServiceContainer
}

var _ CatalogPort = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a new CatalogAdapter.
func NewCatalogAdapter(container mono.ServiceContainer) *CatalogAdapter {
	return &CatalogAdapter{container: container}
}

func (a *CatalogAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return apperr.External(service+" request failed", err)
	}
	return nil
}

// ListProducts returns the products matching c.
func (a *CatalogAdapter) ListProducts(ctx context.Context, c domain.Criteria) ([]domain.Product, error) {
	req := listRequestOf(c)
	var resp ProductsResponse
	if err := a.call(ctx, "list-products", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// GetProduct returns one product.
func (a *CatalogAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	req := GetProductRequest{ID: id}
	var resp ProductResponse
	if err := a.call(ctx, "get-product", &req, &resp); err != nil {
		return nil, err
	}
	return productOf(resp)
}

// GetProducts resolves ids in one round trip. Unknown ids are absent.
func (a *CatalogAdapter) GetProducts(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	req := GetProductsRequest{IDs: ids}
	var resp ProductsResponse
	if err := a.call(ctx, "get-products", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}

	found := make(map[string]domain.Product, len(resp.Products))
	for _, p := range resp.Products {
		found[p.ID] = p
	}
	return found, nil
}

// CreateProduct stores a new product.
func (a *CatalogAdapter) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	req := CreateProductRequest{Product: in}
	var resp ProductResponse
	if err := a.call(ctx, "create-product", &req, &resp); err != nil {
		return nil, err
	}
	return productOf(resp)
}

// UpdateProduct applies patch to product id.
func (a *CatalogAdapter) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	req := UpdateProductRequest{ID: id, Patch: patch}
	var resp ProductResponse
	if err := a.call(ctx, "update-product", &req, &resp); err != nil {
		return nil, err
	}
	return productOf(resp)
}

// DeleteProduct removes product id.
func (a *CatalogAdapter) DeleteProduct(ctx context.Context, id string) error {
	req := DeleteProductRequest{ID: id}
	var resp AckResponse
	if err := a.call(ctx, "delete-product", &req, &resp); err != nil {
		return err
	}
	return apperr.FromCode(resp.ErrorCode, resp.Error)
}

func productOf(resp ProductResponse) (*domain.Product, error) {
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, domain.ErrProductNotFound
	}
	return resp.Product, nil
}
