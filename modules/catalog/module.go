package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/modules/cache"
	"github.com/example/glamup-shop-verse/pkg/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Config configures the catalog module.
type Config struct {
	Database database.Config
	// Seed loads the starter catalog into an empty store on start.
	Seed bool
}

// CatalogModule provides product catalog services.
type CatalogModule struct {
	config      Config
	db          *gorm.DB
	cachePlugin *cache.PluginModule
	service     *CatalogService
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*CatalogModule)(nil)
	_ mono.ServiceProviderModule = (*CatalogModule)(nil)
	_ mono.HealthCheckableModule = (*CatalogModule)(nil)
	_ mono.UsePluginModule       = (*CatalogModule)(nil)
)

// NewModule creates a new CatalogModule.
func NewModule(config Config) *CatalogModule {
	return &CatalogModule{config: config}
}

// Name returns the module name.
func (m *CatalogModule) Name() string {
	return "catalog"
}

// SetPlugin receives the cache plugin. The cache port is resolved in Start,
// after plugins have started.
func (m *CatalogModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if cachePlugin, ok := plugin.(*cache.PluginModule); ok {
		m.cachePlugin = cachePlugin
		log.Println("[catalog] Cache plugin injected")
	}
}

// Start opens the database, wires the service and seeds an empty store.
func (m *CatalogModule) Start(ctx context.Context) error {
	db, err := database.Open(m.config.Database)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewProductRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	var c cache.CacheService
	if m.cachePlugin != nil {
		c = m.cachePlugin.Port()
	}
	if c == nil {
		log.Println("[catalog] Running without cache")
	}
	m.service = NewCatalogService(repo, c)

	if m.config.Seed {
		n, err := m.service.SeedIfEmpty(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed catalog: %w", err)
		}
		if n > 0 {
			log.Printf("[catalog] Seeded %d products", n)
		}
	}

	log.Printf("[catalog] Module started (database: %s)", database.Describe(m.config.Database))
	return nil
}

// Stop closes the database.
func (m *CatalogModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		log.Printf("[catalog] Error closing database: %v", err)
	}
	log.Println("[catalog] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *CatalogModule) Health(_ context.Context) mono.HealthStatus {
	if err := database.Ping(m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": database.Describe(m.config.Database),
			"cached":   m.service != nil && m.service.cache != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *CatalogModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "list-products", json.Unmarshal, json.Marshal, m.handleListProducts); err != nil {
		return fmt.Errorf("failed to register list-products service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-product", json.Unmarshal, json.Marshal, m.handleGetProduct); err != nil {
		return fmt.Errorf("failed to register get-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-products", json.Unmarshal, json.Marshal, m.handleGetProducts); err != nil {
		return fmt.Errorf("failed to register get-products service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "create-product", json.Unmarshal, json.Marshal, m.handleCreateProduct); err != nil {
		return fmt.Errorf("failed to register create-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "update-product", json.Unmarshal, json.Marshal, m.handleUpdateProduct); err != nil {
		return fmt.Errorf("failed to register update-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "delete-product", json.Unmarshal, json.Marshal, m.handleDeleteProduct); err != nil {
		return fmt.Errorf("failed to register delete-product service: %w", err)
	}

	log.Printf("[catalog] Registered services: list-products, get-product, get-products, create-product, update-product, delete-product")
	return nil
}

func errorFields(op string, err error) (string, string) {
	if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindExternalService {
		log.Printf("[catalog] %s failed: %v", op, err)
	}
	return apperr.ToCode(err)
}

func (m *CatalogModule) handleListProducts(ctx context.Context, req ListProductsRequest, _ *mono.Msg) (ProductsResponse, error) {
	var resp ProductsResponse
	criteria, err := req.Criteria()
	if err != nil {
		resp.ErrorCode, resp.Error = errorFields("list-products", err)
		return resp, nil
	}

	products, err := m.service.List(ctx, criteria)
	if err != nil {
		resp.ErrorCode, resp.Error = errorFields("list-products", err)
		return resp, nil
	}
	resp.Products = products
	resp.Count = len(products)
	return resp, nil
}

func (m *CatalogModule) handleGetProduct(ctx context.Context, req GetProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Get(ctx, req.ID)
	return productResponse("get-product", p, err), nil
}

func (m *CatalogModule) handleGetProducts(ctx context.Context, req GetProductsRequest, _ *mono.Msg) (ProductsResponse, error) {
	var resp ProductsResponse
	found, err := m.service.GetMany(ctx, req.IDs)
	if err != nil {
		resp.ErrorCode, resp.Error = errorFields("get-products", err)
		return resp, nil
	}

	resp.Products = make([]domain.Product, 0, len(found))
	for _, id := range req.IDs {
		if p, ok := found[id]; ok {
			resp.Products = append(resp.Products, p)
			delete(found, id)
		}
	}
	resp.Count = len(resp.Products)
	return resp, nil
}

func (m *CatalogModule) handleCreateProduct(ctx context.Context, req CreateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Create(ctx, req.Product)
	return productResponse("create-product", p, err), nil
}

func (m *CatalogModule) handleUpdateProduct(ctx context.Context, req UpdateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Update(ctx, req.ID, req.Patch)
	return productResponse("update-product", p, err), nil
}

func (m *CatalogModule) handleDeleteProduct(ctx context.Context, req DeleteProductRequest, _ *mono.Msg) (AckResponse, error) {
	if err := m.service.Delete(ctx, req.ID); err != nil {
		var resp AckResponse
		resp.ErrorCode, resp.Error = errorFields("delete-product", err)
		return resp, nil
	}
	return AckResponse{OK: true}, nil
}

func productResponse(op string, p *domain.Product, err error) ProductResponse {
	if err != nil {
		var resp ProductResponse
		resp.ErrorCode, resp.Error = errorFields(op, err)
		return resp
	}
	return ProductResponse{Product: p}
}
