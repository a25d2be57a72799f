package cart

import (
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/shopspring/decimal"
)

// Every request names the user whose cart it operates on. The API module
// fills UserID from the verified token, never from the request body.

// ViewCartRequest selects a user's cart.
type ViewCartRequest struct {
	UserID string `json:"user_id"`
}

// LineDTO is one cart line on the wire.
type LineDTO struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	SelectedSize  string           `json:"selected_size,omitempty"`
	SelectedColor string           `json:"selected_color,omitempty"`
	Quantity      int              `json:"quantity"`
	Product       *catalog.Product `json:"product,omitempty"`
	LineTotal     decimal.Decimal  `json:"line_total"`
}

// CartViewResponse carries a computed cart view.
type CartViewResponse struct {
	Lines             []LineDTO       `json:"lines"`
	Total             decimal.Decimal `json:"total"`
	ItemCount         int             `json:"item_count"`
	MissingProductIDs []string        `json:"missing_product_ids,omitempty"`
	ErrorCode         string          `json:"error_code,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// AddItemRequest adds a quantity of one product variant.
type AddItemRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// SetQuantityRequest sets the quantity of one line.
type SetQuantityRequest struct {
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// RemoveItemRequest removes one line.
type RemoveItemRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

// ClearCartRequest empties a cart.
type ClearCartRequest struct {
	UserID string `json:"user_id"`
}

// ItemResponse carries the line written by add-item or set-quantity.
type ItemResponse struct {
	Item      domain.Row `json:"item"`
	Merged    bool       `json:"merged,omitempty"`
	Removed   bool       `json:"removed,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// AckResponse acknowledges an operation without a payload.
type AckResponse struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toViewResponse(v domain.View) CartViewResponse {
	resp := CartViewResponse{
		Lines:             make([]LineDTO, 0, len(v.Lines)),
		Total:             v.Total,
		ItemCount:         v.ItemCount,
		MissingProductIDs: v.MissingIDs,
	}
	for _, l := range v.Lines {
		resp.Lines = append(resp.Lines, LineDTO{
			ID:            l.Row.ID,
			ProductID:     l.Row.ProductID,
			SelectedSize:  l.Row.SelectedSize,
			SelectedColor: l.Row.SelectedColor,
			Quantity:      l.Row.Quantity,
			Product:       l.Product,
			LineTotal:     l.LineTotal,
		})
	}
	return resp
}

func fromViewResponse(userID string, resp CartViewResponse) domain.View {
	v := domain.View{
		Lines:      make([]domain.Line, 0, len(resp.Lines)),
		Total:      resp.Total,
		ItemCount:  resp.ItemCount,
		MissingIDs: resp.MissingProductIDs,
	}
	for _, l := range resp.Lines {
		v.Lines = append(v.Lines, domain.Line{
			Row: domain.Row{
				ID:            l.ID,
				UserID:        userID,
				ProductID:     l.ProductID,
				SelectedSize:  l.SelectedSize,
				SelectedColor: l.SelectedColor,
				Quantity:      l.Quantity,
			},
			Product:   l.Product,
			LineTotal: l.LineTotal,
		})
	}
	return v
}
