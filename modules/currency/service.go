// Package currency keeps the live exchange-rate table. A background worker
// refreshes it from a remote source; failures keep the previous table and
// raise a warning.
package currency

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/example/glamup-shop-verse/domain/currency"
	"github.com/shopspring/decimal"
)

// ErrRefreshSuperseded is returned by Refresh when a newer refresh started
// before this one finished. Its result is discarded.
var ErrRefreshSuperseded = errors.New("rate refresh superseded")

// subscriberBuffer is the number of undelivered events kept per subscriber.
const subscriberBuffer = 16

// RefreshWarning reports one failed refresh attempt.
type RefreshWarning struct {
	Attempt uint64    `json:"attempt"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventType tells what an Event carries.
type EventType string

const (
	EventRates   EventType = "rates"
	EventWarning EventType = "warning"
)

// Event is delivered to subscribers after every refresh attempt that was
// not superseded.
type Event struct {
	Type    EventType       `json:"type"`
	Rates   *Snapshot       `json:"rates,omitempty"`
	Warning *RefreshWarning `json:"warning,omitempty"`
}

// Snapshot is a point-in-time view of the rate table.
type Snapshot struct {
	Base        string                     `json:"base"`
	Rates       map[string]decimal.Decimal `json:"rates"`
	Source      domain.Source              `json:"source"`
	FetchedAt   *time.Time                 `json:"fetched_at,omitempty"`
	LastWarning *RefreshWarning            `json:"last_warning,omitempty"`
}

// RatesService holds the current rate table and applies refreshes.
type RatesService struct {
	table   atomic.Pointer[domain.RateTable]
	fetcher RateFetcher
	now     func() time.Time

	generation atomic.Uint64
	applyMu    sync.Mutex

	mu          sync.Mutex
	lastWarning *RefreshWarning
	subscribers map[uint64]chan Event
	nextSubID   uint64
}

// NewRatesService creates a RatesService that starts with the fallback table.
func NewRatesService(fetcher RateFetcher) *RatesService {
	s := &RatesService{
		fetcher:     fetcher,
		now:         time.Now,
		subscribers: make(map[uint64]chan Event),
	}
	s.table.Store(domain.FallbackTable())
	return s
}

// Table returns the table currently in effect.
func (s *RatesService) Table() *domain.RateTable {
	return s.table.Load()
}

// Snapshot describes the current table and the last refresh warning.
func (s *RatesService) Snapshot() Snapshot {
	s.mu.Lock()
	warning := s.lastWarning
	s.mu.Unlock()
	return snapshotOf(s.table.Load(), warning)
}

func snapshotOf(table *domain.RateTable, warning *RefreshWarning) Snapshot {
	snap := Snapshot{
		Base:        domain.Base,
		Rates:       table.Rates(),
		Source:      table.Source(),
		LastWarning: warning,
	}
	if at := table.FetchedAt(); !at.IsZero() {
		snap.FetchedAt = &at
	}
	return snap
}

// Convert expresses a canonical amount in code using the current table.
func (s *RatesService) Convert(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	return domain.Convert(amount, code, s.table.Load())
}

// FormatPrice converts a canonical amount into code and formats it.
func (s *RatesService) FormatPrice(amount decimal.Decimal, code string) (string, error) {
	return domain.Display(amount, code, s.table.Load())
}

// Refresh fetches a new table and installs it. On failure the previous table
// stays in effect and exactly one warning is raised for this attempt.
//
// A refresh overtaken by a newer one returns ErrRefreshSuperseded and its
// result is discarded, whether it succeeded or failed. A superseded failure
// raises no warning; the newer attempt reports its own outcome.
func (s *RatesService) Refresh(ctx context.Context) error {
	gen := s.generation.Add(1)
	table, err := s.fetcher.Fetch(ctx)

	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	if s.generation.Load() != gen {
		log.Printf("[currency] Rate refresh #%d superseded, result discarded", gen)
		return ErrRefreshSuperseded
	}

	if err != nil {
		current := s.table.Load()
		warning := &RefreshWarning{Attempt: gen, Message: err.Error(), At: s.now()}
		log.Printf("[currency] Rate refresh #%d failed, keeping %s rates: %v", gen, current.Source(), err)

		s.mu.Lock()
		s.lastWarning = warning
		s.mu.Unlock()

		s.publish(Event{Type: EventWarning, Warning: warning})
		return err
	}

	s.table.Store(table)
	s.mu.Lock()
	s.lastWarning = nil
	s.mu.Unlock()

	log.Printf("[currency] Rate refresh #%d applied (%d currencies)", gen, len(table.Rates()))
	snap := snapshotOf(table, nil)
	s.publish(Event{Type: EventRates, Rates: &snap})
	return nil
}

// Subscribe registers for refresh events. The returned function removes the
// subscription and closes the channel. A subscriber that falls more than
// subscriberBuffer events behind misses events.
func (s *RatesService) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscriptions.
func (s *RatesService) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *RatesService) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			log.Printf("[currency] Subscriber %d is full, dropping %s event", id, e.Type)
		}
	}
}
