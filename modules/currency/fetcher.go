package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/example/glamup-shop-verse/domain/currency"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// RateFetcher retrieves a fresh rate table from an external source.
type RateFetcher interface {
	Fetch(ctx context.Context) (*domain.RateTable, error)
}

// ratesPayload is the body served by the rate source:
//
//	{"base":"USD","rates":{"EUR":0.85,"GBP":0.75,...}}
type ratesPayload struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// HTTPFetcher fetches rates with a GET request against a fixed URL.
type HTTPFetcher struct {
	url     string
	timeout time.Duration
	now     func() time.Time
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{url: url, timeout: timeout, now: time.Now}
}

// Fetch requests the rate source and validates the result. A response that
// lacks a supported currency or carries a non-positive rate is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context) (*domain.RateTable, error) {
	type result struct {
		table *domain.RateTable
		err   error
	}

	// The fiber Agent takes no context, so ctx only bounds how long we wait.
	ch := make(chan result, 1)
	go func() {
		table, err := f.fetch()
		ch <- result{table: table, err: err}
	}()

	select {
	case r := <-ch:
		return r.table, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *HTTPFetcher) fetch() (*domain.RateTable, error) {
	code, body, errs := fiber.Get(f.url).Timeout(f.timeout).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch rates: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("rate source returned status %d", code)
	}

	var payload ratesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode rates: %w", err)
	}
	if payload.Base != "" && !strings.EqualFold(payload.Base, domain.Base) {
		return nil, fmt.Errorf("rate source base is %s, want %s", payload.Base, domain.Base)
	}

	return domain.NewRateTable(payload.Rates, domain.SourceRemote, f.now())
}
