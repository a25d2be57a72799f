package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	catalogmod "github.com/example/glamup-shop-verse/modules/catalog"
	"github.com/example/glamup-shop-verse/pkg/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// drainTimeout bounds how long Stop waits for queued cart mutations.
const drainTimeout = 10 * time.Second

// Config configures the cart module.
type Config struct {
	Database database.Config
}

// CartModule provides per-user cart services.
type CartModule struct {
	config   Config
	db       *gorm.DB
	products ProductLookup
	serial   *Serializer
	service  *CartService
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*CartModule)(nil)
	_ mono.ServiceProviderModule = (*CartModule)(nil)
	_ mono.DependentModule       = (*CartModule)(nil)
	_ mono.HealthCheckableModule = (*CartModule)(nil)
)

// NewModule creates a new CartModule.
func NewModule(config Config) *CartModule {
	return &CartModule{config: config}
}

// Name returns the module name.
func (m *CartModule) Name() string {
	return "cart"
}

// Dependencies returns the list of module dependencies.
func (m *CartModule) Dependencies() []string {
	return []string{"catalog"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *CartModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "catalog" {
		m.products = catalogmod.NewCatalogAdapter(container)
	}
}

// Start opens the database and wires the service.
func (m *CartModule) Start(_ context.Context) error {
	if m.products == nil {
		return fmt.Errorf("catalog dependency not set")
	}

	db, err := database.Open(m.config.Database)
	if err != nil {
		return err
	}
	m.db = db

	repo := NewCartRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.serial = NewSerializer()
	m.service = NewCartService(repo, m.products, m.serial)

	log.Printf("[cart] Module started (database: %s)", database.Describe(m.config.Database))
	return nil
}

// Stop drains queued mutations and closes the database.
func (m *CartModule) Stop(ctx context.Context) error {
	if m.serial != nil {
		ctx, cancel := context.WithTimeout(ctx, drainTimeout)
		defer cancel()
		if err := m.serial.Close(ctx); err != nil {
			log.Printf("[cart] Pending mutations not drained: %v", err)
		}
	}
	if err := database.Close(m.db); err != nil {
		log.Printf("[cart] Error closing database: %v", err)
	}
	log.Println("[cart] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *CartModule) Health(_ context.Context) mono.HealthStatus {
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
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *CartModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "view-cart", json.Unmarshal, json.Marshal, m.handleViewCart); err != nil {
		return fmt.Errorf("failed to register view-cart service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "add-item", json.Unmarshal, json.Marshal, m.handleAddItem); err != nil {
		return fmt.Errorf("failed to register add-item service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "set-quantity", json.Unmarshal, json.Marshal, m.handleSetQuantity); err != nil {
		return fmt.Errorf("failed to register set-quantity service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "remove-item", json.Unmarshal, json.Marshal, m.handleRemoveItem); err != nil {
		return fmt.Errorf("failed to register remove-item service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "clear-cart", json.Unmarshal, json.Marshal, m.handleClearCart); err != nil {
		return fmt.Errorf("failed to register clear-cart service: %w", err)
	}

	log.Printf("[cart] Registered services: view-cart, add-item, set-quantity, remove-item, clear-cart")
	return nil
}

var errUserRequired = apperr.Unauthorized("user id is required")

func errorFields(op string, err error) (string, string) {
	if kind := apperr.KindOf(err); kind == apperr.KindInternal || kind == apperr.KindExternalService {
		log.Printf("[cart] %s failed: %v", op, err)
	}
	return apperr.ToCode(err)
}

func (m *CartModule) handleViewCart(ctx context.Context, req ViewCartRequest, _ *mono.Msg) (CartViewResponse, error) {
	if req.UserID == "" {
		var resp CartViewResponse
		resp.ErrorCode, resp.Error = errorFields("view-cart", errUserRequired)
		return resp, nil
	}

	view, err := m.service.View(ctx, req.UserID)
	if err != nil {
		var resp CartViewResponse
		resp.ErrorCode, resp.Error = errorFields("view-cart", err)
		return resp, nil
	}
	return toViewResponse(view), nil
}

func (m *CartModule) handleAddItem(ctx context.Context, req AddItemRequest, _ *mono.Msg) (ItemResponse, error) {
	if req.UserID == "" {
		return itemError("add-item", errUserRequired), nil
	}

	row, merged, err := m.service.Add(ctx, req.UserID, domain.Item{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		return itemError("add-item", err), nil
	}
	return ItemResponse{Item: row, Merged: merged}, nil
}

func (m *CartModule) handleSetQuantity(ctx context.Context, req SetQuantityRequest, _ *mono.Msg) (ItemResponse, error) {
	if req.UserID == "" {
		return itemError("set-quantity", errUserRequired), nil
	}

	row, removed, err := m.service.SetQuantity(ctx, req.UserID, req.ItemID, req.Quantity)
	if err != nil {
		return itemError("set-quantity", err), nil
	}
	return ItemResponse{Item: row, Removed: removed}, nil
}

func itemError(op string, err error) ItemResponse {
	var resp ItemResponse
	resp.ErrorCode, resp.Error = errorFields(op, err)
	return resp
}

func (m *CartModule) handleRemoveItem(ctx context.Context, req RemoveItemRequest, _ *mono.Msg) (AckResponse, error) {
	if req.UserID == "" {
		return ackError("remove-item", errUserRequired), nil
	}
	if err := m.service.Remove(ctx, req.UserID, req.ItemID); err != nil {
		return ackError("remove-item", err), nil
	}
	return AckResponse{OK: true}, nil
}

func (m *CartModule) handleClearCart(ctx context.Context, req ClearCartRequest, _ *mono.Msg) (AckResponse, error) {
	if req.UserID == "" {
		return ackError("clear-cart", errUserRequired), nil
	}
	if err := m.service.Clear(ctx, req.UserID); err != nil {
		return ackError("clear-cart", err), nil
	}
	return AckResponse{OK: true}, nil
}

func ackError(op string, err error) AckResponse {
	var resp AckResponse
	resp.ErrorCode, resp.Error = errorFields(op, err)
	return resp
}
