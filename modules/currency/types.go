package currency

import (
	domain "github.com/example/glamup-shop-verse/domain/currency"
	"github.com/shopspring/decimal"
)

// GetRatesRequest asks for the current rate table.
type GetRatesRequest struct{}

// RatesResponse carries the current rates and display attributes of the
// supported currencies.
type RatesResponse struct {
	Snapshot
	Currencies []domain.Info `json:"currencies"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// ConvertRequest converts a canonical amount.
type ConvertRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// ConvertResponse is the converted and formatted amount.
type ConvertResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Converted decimal.Decimal `json:"converted"`
	Formatted string          `json:"formatted"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// FormatPriceRequest formats several canonical amounts in one currency.
type FormatPriceRequest struct {
	Amounts  []decimal.Decimal `json:"amounts"`
	Currency string            `json:"currency"`
}

// Price is one amount expressed in a display currency.
type Price struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Formatted string          `json:"formatted"`
}

// FormatPriceResponse holds one Price per requested amount, in order.
type FormatPriceResponse struct {
	Prices    []Price `json:"prices"`
	ErrorCode string  `json:"error_code,omitempty"`
	Error     string  `json:"error,omitempty"`
}
