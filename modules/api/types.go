package api

import (
	"time"

	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/domain/user"
	"github.com/example/glamup-shop-verse/modules/currency"
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the HTTP request body for registration.
type RegisterRequest struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Profile  user.Profile `json:"profile"`
}

// LoginRequest represents the HTTP request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the HTTP request body for refresh and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse represents the HTTP response for user data.
type UserResponse struct {
	ID        string       `json:"id"`
	Email     string       `json:"email"`
	Role      string       `json:"role"`
	Profile   user.Profile `json:"profile"`
	CreatedAt time.Time    `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   user.ProfileOf(*u),
		CreatedAt: u.CreatedAt,
	}
}

// ProductResponse is a product with its price in the requested display
// currency. DisplayPrice is omitted when no currency was requested.
type ProductResponse struct {
	domain.Product
	DisplayPrice *currency.Price `json:"display_price,omitempty"`
}

// ProductsResponse represents a product listing.
type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
	Currency string            `json:"currency,omitempty"`
}

// AddCartItemRequest represents the HTTP request body for adding to the cart.
// A missing quantity adds one unit.
type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// SetQuantityRequest represents the HTTP request body for a quantity change.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartLineResponse is one cart line.
type CartLineResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	SelectedSize  string          `json:"selected_size,omitempty"`
	SelectedColor string          `json:"selected_color,omitempty"`
	Quantity      int             `json:"quantity"`
	Product       *domain.Product `json:"product,omitempty"`
	LineTotal     decimal.Decimal `json:"line_total"`
	DisplayTotal  *currency.Price `json:"display_total,omitempty"`
}

// CartResponse represents the computed cart of the current user.
type CartResponse struct {
	Lines             []CartLineResponse `json:"lines"`
	Total             decimal.Decimal    `json:"total"`
	DisplayTotal      *currency.Price    `json:"display_total,omitempty"`
	ItemCount         int                `json:"item_count"`
	MissingProductIDs []string           `json:"missing_product_ids,omitempty"`
}

// CartItemResponse represents the line written by an add or quantity change.
type CartItemResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	SelectedSize  string `json:"selected_size,omitempty"`
	SelectedColor string `json:"selected_color,omitempty"`
	Quantity      int    `json:"quantity"`
	Merged        bool   `json:"merged,omitempty"`
	Removed       bool   `json:"removed,omitempty"`
}

// MediaResponse describes an uploaded image.
type MediaResponse struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// MessageResponse represents a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
