// Package cart keeps per-user shopping carts. Mutations for one user run in
// submission order through a Serializer; views are computed on read from the
// stored rows and the current catalog.
package cart

import (
	"context"
	"log"
	"time"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/google/uuid"
)

// ErrOutOfStock is returned when adding a product that is not in stock.
var ErrOutOfStock = apperr.Validation("product is out of stock")

// ProductLookup resolves catalog products for cart operations.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	GetProducts(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

// CartService implements the cart operations for authenticated users.
type CartService struct {
	repo     *CartRepository
	products ProductLookup
	serial   *Serializer
	now      func() time.Time
	newID    func() string
}

// NewCartService creates a CartService.
func NewCartService(repo *CartRepository, products ProductLookup, serial *Serializer) *CartService {
	return &CartService{
		repo:     repo,
		products: products,
		serial:   serial,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// View returns the user's cart joined with current product data.
func (s *CartService) View(ctx context.Context, userID string) (domain.View, error) {
	rows, err := s.repo.Rows(ctx, userID)
	if err != nil {
		return domain.View{}, err
	}
	if len(rows) == 0 {
		return domain.ComputeView(rows, nil), nil
	}

	products, err := s.products.GetProducts(ctx, domain.ProductIDs(rows))
	if err != nil {
		return domain.View{}, err
	}

	view := domain.ComputeView(rows, products)
	if len(view.MissingIDs) > 0 {
		log.Printf("[cart] User %s has %d line(s) for missing products", userID, len(view.MissingIDs))
	}
	return view, nil
}

// Add adds item to the user's cart, merging with an existing line of the
// same variant. It reports whether the item was merged.
func (s *CartService) Add(ctx context.Context, userID string, item domain.Item) (domain.Row, bool, error) {
	if err := item.Validate(); err != nil {
		return domain.Row{}, false, err
	}

	p, err := s.products.GetProduct(ctx, item.ProductID)
	if err != nil {
		return domain.Row{}, false, err
	}
	if !p.InStock {
		return domain.Row{}, false, ErrOutOfStock
	}

	var (
		written domain.Row
		merged  bool
	)
	err = s.serial.Do(ctx, userID, func(ctx context.Context) error {
		rows, err := s.repo.Rows(ctx, userID)
		if err != nil {
			return err
		}

		_, row, wasMerged, err := domain.AddOrMerge(rows, userID, item, s.newID, s.now())
		if err != nil {
			return err
		}

		if wasMerged {
			err = s.repo.UpdateQuantity(ctx, userID, row)
		} else {
			err = s.repo.Insert(ctx, row)
		}
		if err != nil {
			return err
		}

		written, merged = row, wasMerged
		return nil
	})
	return written, merged, err
}

// SetQuantity sets the quantity of one line. A quantity <= 0 removes the
// line; the result reports whether it did.
func (s *CartService) SetQuantity(ctx context.Context, userID, rowID string, quantity int) (domain.Row, bool, error) {
	var (
		written domain.Row
		removed bool
	)
	err := s.serial.Do(ctx, userID, func(ctx context.Context) error {
		rows, err := s.repo.Rows(ctx, userID)
		if err != nil {
			return err
		}

		_, row, wasRemoved, err := domain.SetQuantity(rows, rowID, quantity, s.now())
		if err != nil {
			return err
		}

		if wasRemoved {
			err = s.repo.Delete(ctx, userID, row.ID)
		} else {
			err = s.repo.UpdateQuantity(ctx, userID, row)
		}
		if err != nil {
			return err
		}

		written, removed = row, wasRemoved
		return nil
	})
	return written, removed, err
}

// Remove deletes one line. Removing an absent line succeeds.
func (s *CartService) Remove(ctx context.Context, userID, rowID string) error {
	return s.serial.Do(ctx, userID, func(ctx context.Context) error {
		return s.repo.Delete(ctx, userID, rowID)
	})
}

// Clear empties the user's cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.serial.Do(ctx, userID, func(ctx context.Context) error {
		return s.repo.Clear(ctx, userID)
	})
}
