package currency

import (
	"context"
	"encoding/json"

	"github.com/example/glamup-shop-verse/domain/apperr"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/shopspring/decimal"
)

// RatesPort is the interface other modules use to reach the currency module.
type RatesPort interface {
	GetRates(ctx context.Context) (RatesResponse, error)
	Convert(ctx context.Context, amount decimal.Decimal, code string) (Price, error)
	FormatPrices(ctx context.Context, amounts []decimal.Decimal, code string) ([]Price, error)
}

// RatesAdapter implements RatesPort using the service container.
type RatesAdapter struct {
	container mono.ServiceContainer
}

var _ RatesPort = (*RatesAdapter)(nil)

// NewRatesAdapter creates a new RatesAdapter.
func NewRatesAdapter(container mono.ServiceContainer) *RatesAdapter {
	return &RatesAdapter{container: container}
}

func (a *RatesAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return apperr.External(service+" request failed", err)
	}
	return nil
}

// GetRates returns the current rate table.
func (a *RatesAdapter) GetRates(ctx context.Context) (RatesResponse, error) {
	var resp RatesResponse
	if err := a.call(ctx, "get-rates", &GetRatesRequest{}, &resp); err != nil {
		return RatesResponse{}, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return RatesResponse{}, err
	}
	return resp, nil
}

// Convert expresses a canonical amount in code.
func (a *RatesAdapter) Convert(ctx context.Context, amount decimal.Decimal, code string) (Price, error) {
	req := ConvertRequest{Amount: amount, Currency: code}
	var resp ConvertResponse
	if err := a.call(ctx, "convert", &req, &resp); err != nil {
		return Price{}, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return Price{}, err
	}
	return Price{Amount: resp.Converted, Currency: resp.Currency, Formatted: resp.Formatted}, nil
}

// FormatPrices converts and formats amounts in code, preserving order.
func (a *RatesAdapter) FormatPrices(ctx context.Context, amounts []decimal.Decimal, code string) ([]Price, error) {
	req := FormatPriceRequest{Amounts: amounts, Currency: code}
	var resp FormatPriceResponse
	if err := a.call(ctx, "format-price", &req, &resp); err != nil {
		return nil, err
	}
	if err := apperr.FromCode(resp.ErrorCode, resp.Error); err != nil {
		return nil, err
	}
	return resp.Prices, nil
}
