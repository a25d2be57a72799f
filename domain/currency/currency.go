// Package currency converts and formats canonical (USD) prices for display.
package currency

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	"github.com/shopspring/decimal"
)

// Base is the canonical currency every price is stored in.
const Base = "USD"

// ErrInvalidCurrency is returned for a currency code that is not in the rate table.
var ErrInvalidCurrency = apperr.InvalidCurrency("unsupported currency")

// Info describes how amounts in a currency are displayed.
type Info struct {
	Code     string `json:"code"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// registry holds display attributes of supported currencies.
var registry = map[string]Info{
	"USD": {Code: "USD", Symbol: "$", Decimals: 2},
	"EUR": {Code: "EUR", Symbol: "€", Decimals: 2},
	"GBP": {Code: "GBP", Symbol: "£", Decimals: 2},
	"JPY": {Code: "JPY", Symbol: "¥", Decimals: 0},
	"CAD": {Code: "CAD", Symbol: "C$", Decimals: 2},
	"AUD": {Code: "AUD", Symbol: "A$", Decimals: 2},
}

// Supported returns the supported currency codes, sorted.
func Supported() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Lookup returns display attributes for code. Codes without a registry entry
// are shown with the code as symbol and two decimal places.
func Lookup(code string) Info {
	code = strings.ToUpper(code)
	if info, ok := registry[code]; ok {
		return info
	}
	return Info{Code: code, Symbol: code + " ", Decimals: 2}
}

// Source tells where a rate table came from.
type Source string

const (
	SourceFallback Source = "fallback"
	SourceRemote   Source = "remote"
)

// RateTable maps currency codes to multipliers against Base. Tables are
// immutable once built; a refresh replaces the whole table.
type RateTable struct {
	rates     map[string]decimal.Decimal
	fetchedAt time.Time
	source    Source
}

// NewRateTable validates rates and builds a table. The base currency is
// pinned to 1. Every supported currency must be present with a positive
// rate.
func NewRateTable(rates map[string]decimal.Decimal, source Source, fetchedAt time.Time) (*RateTable, error) {
	table := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate for %s must be positive, got %s", code, rate)
		}
		table[code] = rate
	}
	table[Base] = decimal.NewFromInt(1)

	for code := range registry {
		if _, ok := table[code]; !ok {
			return nil, fmt.Errorf("rate table is missing %s", code)
		}
	}

	return &RateTable{rates: table, fetchedAt: fetchedAt, source: source}, nil
}

// FallbackTable returns the hardcoded table used before the first successful
// refresh and whenever no refresh has succeeded.
func FallbackTable() *RateTable {
	t, err := NewRateTable(map[string]decimal.Decimal{
		"EUR": decimal.RequireFromString("0.85"),
		"GBP": decimal.RequireFromString("0.75"),
		"JPY": decimal.RequireFromString("110.42"),
		"CAD": decimal.RequireFromString("1.25"),
		"AUD": decimal.RequireFromString("1.35"),
	}, SourceFallback, time.Time{})
	if err != nil {
		panic(err)
	}
	return t
}

// Rate returns the multiplier for code.
func (t *RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.rates[strings.ToUpper(code)]
	return r, ok
}

// Rates returns a copy of the rates.
func (t *RateTable) Rates() map[string]decimal.Decimal {
	return maps.Clone(t.rates)
}

// Source returns where the table came from.
func (t *RateTable) Source() Source { return t.source }

// FetchedAt returns when the table was fetched; zero for the fallback table.
func (t *RateTable) FetchedAt() time.Time { return t.fetchedAt }

// Convert returns amount expressed in code. It fails with ErrInvalidCurrency
// when code is not in the table.
func Convert(amount decimal.Decimal, code string, table *RateTable) (decimal.Decimal, error) {
	rate, ok := table.Rate(code)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidCurrency, code)
	}
	return amount.Mul(rate), nil
}

// Format renders amount, already expressed in info's currency, with its
// symbol and decimal places.
func Format(amount decimal.Decimal, info Info) string {
	return info.Symbol + amount.StringFixed(info.Decimals)
}

// Display converts a canonical amount into code and formats it.
func Display(amount decimal.Decimal, code string, table *RateTable) (string, error) {
	converted, err := Convert(amount, code, table)
	if err != nil {
		return "", err
	}
	return Format(converted, Lookup(code)), nil
}
