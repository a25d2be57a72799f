package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/currency"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/shopspring/decimal"
)

// Config configures the currency module.
type Config struct {
	SourceURL       string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	RefreshEnabled  bool
}

// CurrencyModule serves rates and runs the refresh worker.
type CurrencyModule struct {
	config  Config
	service *RatesService

	cancel   context.CancelFunc
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*CurrencyModule)(nil)
	_ mono.ServiceProviderModule = (*CurrencyModule)(nil)
	_ mono.HealthCheckableModule = (*CurrencyModule)(nil)
)

// NewModule creates a new CurrencyModule. The service exists from
// construction so other modules can subscribe before Start.
func NewModule(config Config) *CurrencyModule {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = time.Hour
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 5 * time.Second
	}
	return &CurrencyModule{
		config:  config,
		service: NewRatesService(NewHTTPFetcher(config.SourceURL, config.FetchTimeout)),
	}
}

// Name returns the module name.
func (m *CurrencyModule) Name() string {
	return "currency"
}

// Service returns the rates service for in-process subscribers.
func (m *CurrencyModule) Service() *RatesService {
	return m.service
}

// Start launches the refresh worker when refreshing is enabled.
func (m *CurrencyModule) Start(_ context.Context) error {
	if !m.config.RefreshEnabled || m.config.SourceURL == "" {
		log.Println("[currency] Module started with fallback rates (refresh disabled)")
		return nil
	}

	var ctx context.Context
	ctx, m.cancel = context.WithCancel(context.Background())
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})

	go m.run(ctx)

	log.Printf("[currency] Module started (source: %s, interval: %s)", m.config.SourceURL, m.config.RefreshInterval)
	return nil
}

// run refreshes once immediately, then on every tick.
func (m *CurrencyModule) run(ctx context.Context) {
	ticker := time.NewTicker(m.config.RefreshInterval)
	defer ticker.Stop()
	defer close(m.doneChan)

	m.refresh(ctx)
	for {
		select {
		case <-m.stopChan:
			log.Println("[currency] Refresh worker received stop signal")
			return
		case <-ticker.C:
			m.refresh(ctx)
		}
	}
}

func (m *CurrencyModule) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, m.config.FetchTimeout)
	defer cancel()
	// Refresh logs and publishes its own failures.
	_ = m.service.Refresh(ctx)
}

// Stop shuts down the refresh worker.
func (m *CurrencyModule) Stop(ctx context.Context) error {
	if m.stopChan == nil {
		return nil
	}

	m.stopOnce.Do(func() {
		m.cancel()
		close(m.stopChan)
	})

	select {
	case <-m.doneChan:
		log.Println("[currency] Module stopped")
	case <-ctx.Done():
		log.Println("[currency] Refresh worker shutdown timeout exceeded")
		return ctx.Err()
	}
	return nil
}

// Health reports healthy while any table is in effect; a failing source only
// adds detail.
func (m *CurrencyModule) Health(_ context.Context) mono.HealthStatus {
	snap := m.service.Snapshot()
	details := map[string]any{
		"source":      string(snap.Source),
		"subscribers": m.service.SubscriberCount(),
	}
	if snap.FetchedAt != nil {
		details["fetched_at"] = snap.FetchedAt.Format(time.RFC3339)
	}
	message := "operational"
	if snap.LastWarning != nil {
		message = "serving stale rates"
		details["last_warning"] = snap.LastWarning.Message
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: message,
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *CurrencyModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "get-rates", json.Unmarshal, json.Marshal, m.handleGetRates); err != nil {
		return fmt.Errorf("failed to register get-rates service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "convert", json.Unmarshal, json.Marshal, m.handleConvert); err != nil {
		return fmt.Errorf("failed to register convert service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "format-price", json.Unmarshal, json.Marshal, m.handleFormatPrice); err != nil {
		return fmt.Errorf("failed to register format-price service: %w", err)
	}

	log.Printf("[currency] Registered services: get-rates, convert, format-price")
	return nil
}

func (m *CurrencyModule) handleGetRates(_ context.Context, _ GetRatesRequest, _ *mono.Msg) (RatesResponse, error) {
	table := m.service.Table()
	resp := RatesResponse{Snapshot: m.service.Snapshot()}
	for code := range table.Rates() {
		resp.Currencies = append(resp.Currencies, domain.Lookup(code))
	}
	slices.SortFunc(resp.Currencies, func(a, b domain.Info) int {
		return strings.Compare(a.Code, b.Code)
	})
	return resp, nil
}

func (m *CurrencyModule) handleConvert(_ context.Context, req ConvertRequest, _ *mono.Msg) (ConvertResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	resp := ConvertResponse{Amount: req.Amount, Currency: code}

	price, err := priceIn(m.service.Table(), req.Amount, code)
	if err != nil {
		resp.ErrorCode, resp.Error = apperr.ToCode(err)
		return resp, nil
	}
	resp.Converted = price.Amount
	resp.Formatted = price.Formatted
	return resp, nil
}

func (m *CurrencyModule) handleFormatPrice(_ context.Context, req FormatPriceRequest, _ *mono.Msg) (FormatPriceResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Currency))
	table := m.service.Table()
	if _, err := priceIn(table, decimal.Zero, code); err != nil {
		var resp FormatPriceResponse
		resp.ErrorCode, resp.Error = apperr.ToCode(err)
		return resp, nil
	}

	resp := FormatPriceResponse{Prices: make([]Price, 0, len(req.Amounts))}
	for _, amount := range req.Amounts {
		price, _ := priceIn(table, amount, code)
		resp.Prices = append(resp.Prices, price)
	}
	return resp, nil
}

// priceIn converts and formats against one table so both fields agree.
func priceIn(table *domain.RateTable, amount decimal.Decimal, code string) (Price, error) {
	if code == "" {
		return Price{}, apperr.Validation("currency is required")
	}
	converted, err := domain.Convert(amount, code, table)
	if err != nil {
		return Price{}, err
	}
	return Price{
		Amount:    converted,
		Currency:  code,
		Formatted: domain.Format(converted, domain.Lookup(code)),
	}, nil
}
