package api

import (
	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ViewCart returns the current user's cart. With ?currency= every line total
// and the grand total also carry a display price.
func (h *Handlers) ViewCart(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	view, err := h.cart.View(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}

	resp := CartResponse{
		Lines:             make([]CartLineResponse, 0, len(view.Lines)),
		Total:             view.Total,
		ItemCount:         view.ItemCount,
		MissingProductIDs: view.MissingIDs,
	}
	for _, l := range view.Lines {
		resp.Lines = append(resp.Lines, CartLineResponse{
			ID:            l.Row.ID,
			ProductID:     l.Row.ProductID,
			SelectedSize:  l.Row.SelectedSize,
			SelectedColor: l.Row.SelectedColor,
			Quantity:      l.Row.Quantity,
			Product:       l.Product,
			LineTotal:     l.LineTotal,
		})
	}

	if code := currencyParam(c); code != "" {
		// line totals first, grand total last
		amounts := make([]decimal.Decimal, 0, len(resp.Lines)+1)
		for _, l := range resp.Lines {
			amounts = append(amounts, l.LineTotal)
		}
		amounts = append(amounts, resp.Total)

		prices, err := h.displayPrices(c.UserContext(), amounts, code)
		if err != nil {
			return err
		}
		for i := range resp.Lines {
			resp.Lines[i].DisplayTotal = &prices[i]
		}
		resp.DisplayTotal = &prices[len(prices)-1]
	}

	return c.JSON(resp)
}

// AddCartItem adds a product variant to the current user's cart. It answers
// 201 for a new line and 200 when the quantity merged into an existing one.
func (h *Handlers) AddCartItem(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	var req AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	row, merged, err := h.cart.Add(c.UserContext(), claims.UserID, domain.Item{
		ProductID: req.ProductID,
		Quantity:  quantity,
		Size:      req.Size,
		Color:     req.Color,
	})
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if merged {
		status = fiber.StatusOK
	}
	resp := toCartItemResponse(row)
	resp.Merged = merged
	return c.Status(status).JSON(resp)
}

// SetCartItemQuantity sets the quantity of a line. Zero removes the line.
func (h *Handlers) SetCartItemQuantity(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	var req SetQuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}

	row, removed, err := h.cart.SetQuantity(c.UserContext(), claims.UserID, c.Params("id"), req.Quantity)
	if err != nil {
		return err
	}
	resp := toCartItemResponse(row)
	resp.Removed = removed
	return c.JSON(resp)
}

// RemoveCartItem removes a line from the current user's cart.
func (h *Handlers) RemoveCartItem(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	if err := h.cart.Remove(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Message: "item removed"})
}

// ClearCart empties the current user's cart.
func (h *Handlers) ClearCart(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return apperr.Unauthorized("Invalid token claims")
	}

	if err := h.cart.Clear(c.UserContext(), claims.UserID); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Message: "cart cleared"})
}

func toCartItemResponse(row domain.Row) CartItemResponse {
	return CartItemResponse{
		ID:            row.ID,
		ProductID:     row.ProductID,
		SelectedSize:  row.SelectedSize,
		SelectedColor: row.SelectedColor,
		Quantity:      row.Quantity,
	}
}
