package cart

import (
	"context"
	"encoding/json"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CartPort is the interface other modules use to reach carts.
type CartPort interface {
	View(ctx context.Context, userID string) (domain.View, error)
	Add(ctx context.Context, userID string, item domain.Item) (domain.Row, bool, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.Row, bool, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

// CartAdapter implements CartPort using the service container.
type CartAdapter struct {
	container mono.ServiceContainer
}

var _ CartPort = (*CartAdapter)(nil)

// NewCartAdapter creates a new CartAdapter.
func NewCartAdapter(container mono.ServiceContainer) *CartAdapter {
	return &CartAdapter{container: container}
}

func (a *CartAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return apperr.External(service+" request failed", err)
	}
	return nil
}

// View returns the user's computed cart.
func (a *CartAdapter) View(ctx context.Context, userID string) (domain.View, error) {
	req := ViewCartRequest{UserID: userID}
	var resp CartViewResponse
	if err := a.call(ctx, "view-cart", &req, &resp); err != nil {
		return domain.View{}, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return domain.View{}, err
	}
	return fromViewResponse(userID, resp), nil
}

// Add adds an item and reports whether it merged into an existing line.
func (a *CartAdapter) Add(ctx context.Context, userID string, item domain.Item) (domain.Row, bool, error) {
	req := AddItemRequest{
		UserID:    userID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Color:     item.Color,
	}
	var resp ItemResponse
	if err := a.call(ctx, "add-item", &req, &resp); err != nil {
		return domain.Row{}, false, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return domain.Row{}, false, err
	}
	return resp.Item, resp.Merged, nil
}

// SetQuantity sets a line's quantity and reports whether the line was removed.
func (a *CartAdapter) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (domain.Row, bool, error) {
	req := SetQuantityRequest{UserID: userID, ItemID: itemID, Quantity: quantity}
	var resp ItemResponse
	if err := a.call(ctx, "set-quantity", &req, &resp); err != nil {
		return domain.Row{}, false, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return domain.Row{}, false, err
	}
	return resp.Item, resp.Removed, nil
}

// Remove deletes one line.
func (a *CartAdapter) Remove(ctx context.Context, userID, itemID string) error {
	req := RemoveItemRequest{UserID: userID, ItemID: itemID}
	var resp AckResponse
	if err := a.call(ctx, "remove-item", &req, &resp); err != nil {
		return err
	}
	return apperr.FromCode(resp.ErrorCode, resp.Error)
}

// Clear empties the user's cart.
func (a *CartAdapter) Clear(ctx context.Context, userID string) error {
	req := ClearCartRequest{UserID: userID}
	var resp AckResponse
	if err := a.call(ctx, "clear-cart", &req, &resp); err != nil {
		return err
	}
	return apperr.FromCode(resp.ErrorCode, resp.Error)
}
