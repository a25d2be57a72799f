// Package catalog serves the product catalog: cached reads, the filter
// pipeline and admin writes.
package catalog

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"github.com/example/glamup-shop-verse/modules/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const listCacheKey = "list:all"

func productCacheKey(id string) string {
	return "product:" + id
}

// ProductInput carries the fields of a new product. A nil InStock means in
// stock.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Images      []string        `json:"images,omitempty"`
	Sizes       []string        `json:"sizes,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
	InStock     *bool           `json:"in_stock,omitempty"`
	Featured    bool            `json:"featured"`
	Rating      *float64        `json:"rating,omitempty"`
}

// ProductPatch carries the fields an update replaces. Nil fields are kept.
// ClearRating removes the rating and takes precedence over Rating.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Images      *[]string        `json:"images,omitempty"`
	Sizes       *[]string        `json:"sizes,omitempty"`
	Colors      *[]string        `json:"colors,omitempty"`
	InStock     *bool            `json:"in_stock,omitempty"`
	Featured    *bool            `json:"featured,omitempty"`
	Rating      *float64         `json:"rating,omitempty"`
	ClearRating bool             `json:"clear_rating,omitempty"`
}

func (p ProductPatch) apply(dst *domain.Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Images != nil {
		dst.Images = *p.Images
	}
	if p.Sizes != nil {
		dst.Sizes = *p.Sizes
	}
	if p.Colors != nil {
		dst.Colors = *p.Colors
	}
	if p.InStock != nil {
		dst.InStock = *p.InStock
	}
	if p.Featured != nil {
		dst.Featured = *p.Featured
	}
	switch {
	case p.ClearRating:
		dst.Rating = nil
	case p.Rating != nil:
		dst.Rating = p.Rating
	}
}

// CatalogService provides catalog operations with cache-aside reads.
//
// Every write bumps version before invalidating. A cache fill started under
// an older version is not written, so a slow read that raced a write cannot
// put stale products back into the cache.
type CatalogService struct {
	repo    *ProductRepository
	cache   cache.CacheService
	sfGroup singleflight.Group
	version atomic.Uint64
	now     func() time.Time
}

// NewCatalogService creates a CatalogService. c may be nil, in which case
// every read goes to the repository.
func NewCatalogService(repo *ProductRepository, c cache.CacheService) *CatalogService {
	return &CatalogService{
		repo:  repo,
		cache: c,
		now:   time.Now,
	}
}

// all returns the full product list in insertion order. The returned slice
// is shared and must not be modified.
func (s *CatalogService) all(ctx context.Context) ([]domain.Product, error) {
	v := s.version.Load()

	if s.cache != nil {
		var cached []domain.Product
		found, err := s.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			log.Printf("[catalog] Cache error for list: %v", err)
		}
		if found {
			return cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do("list:"+strconv.FormatUint(v, 10), func() (any, error) {
		products, err := s.repo.All(ctx)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, v, listCacheKey, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]domain.Product), nil
}

// fill writes value under key unless a write happened since version v was
// observed.
func (s *CatalogService) fill(ctx context.Context, v uint64, key string, value any) {
	if s.cache == nil || s.version.Load() != v {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		log.Printf("[catalog] Warning: failed to cache %s: %v", key, err)
		return
	}
	// a write may have slipped in between the check and the set
	if s.version.Load() != v {
		_ = s.cache.Delete(ctx, key)
	}
}

// invalidate bumps the write version and drops the list entry and the
// entries of ids.
func (s *CatalogService) invalidate(ctx context.Context, ids ...string) {
	s.version.Add(1)
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, listCacheKey)
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[catalog] Warning: failed to invalidate %s: %v", key, err)
		}
	}
}

// List returns the products matching c, ordered by c.Sort.
func (s *CatalogService) List(ctx context.Context, c domain.Criteria) ([]domain.Product, error) {
	if (c.MinPrice.Valid && c.MinPrice.Decimal.IsNegative()) || (c.MaxPrice.Valid && c.MaxPrice.Decimal.IsNegative()) {
		return nil, domain.ErrInvalidPriceRange
	}
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Filter(products, c), nil
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	key := productCacheKey(id)
	v := s.version.Load()

	if s.cache != nil {
		var cached domain.Product
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[catalog] Cache error for %s: %v", key, err)
		}
		if found {
			return &cached, nil
		}
	}

	val, err, _ := s.sfGroup.Do(key+":"+strconv.FormatUint(v, 10), func() (any, error) {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, v, key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	p := *val.(*domain.Product)
	return &p, nil
}

// GetMany resolves ids to products. Unknown ids are absent from the result.
func (s *CatalogService) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	found := make(map[string]domain.Product, len(ids))
	for _, p := range products {
		if _, ok := wanted[p.ID]; ok {
			found[p.ID] = p
		}
	}
	return found, nil
}

// Create validates and stores a new product.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	now := s.now()
	p := &domain.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Images:      in.Images,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
		InStock:     in.InStock == nil || *in.InStock,
		Featured:    in.Featured,
		Rating:      in.Rating,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	domain.Normalize(p)
	if err := domain.Validate(*p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)

	log.Printf("[catalog] Created product %s (%s)", p.ID, p.Name)
	return p, nil
}

// Update applies patch to an existing product. The merged product is
// validated as a whole before anything is written.
func (s *CatalogService) Update(ctx context.Context, id string, patch ProductPatch) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(p)
	domain.Normalize(p)
	if err := domain.Validate(*p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	log.Printf("[catalog] Updated product %s", id)
	return p, nil
}

// Delete removes a product.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	log.Printf("[catalog] Deleted product %s", id)
	return nil
}

// SeedIfEmpty loads SeedProducts into an empty store and reports how many
// products were inserted.
func (s *CatalogService) SeedIfEmpty(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	seed := SeedProducts(s.now())
	ptrs := make([]*domain.Product, len(seed))
	for i := range seed {
		ptrs[i] = &seed[i]
	}
	if err := s.repo.Create(ctx, ptrs...); err != nil {
		if errors.Is(err, ErrProductExists) {
			return 0, nil
		}
		return 0, err
	}

	s.version.Add(1)
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			log.Printf("[catalog] Warning: failed to invalidate cache: %v", err)
		}
	}
	return len(seed), nil
}
