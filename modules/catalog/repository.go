package catalog

import (
	"context"
	"errors"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/catalog"
	"gorm.io/gorm"
)

// ErrProductExists is returned when a product id is already taken.
var ErrProductExists = apperr.Conflict("product already exists")

// ProductRepository handles product persistence using GORM.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Migrate creates or updates the products table.
func (r *ProductRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

// All returns every product in insertion order.
func (r *ProductRepository) All(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&products).Error; err != nil {
		return nil, apperr.External("failed to list products", err)
	}
	return products, nil
}

// FindByID finds a product by ID.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, apperr.External("failed to find product", err)
	}
	return &p, nil
}

// Count returns the number of stored products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Product{}).Count(&n).Error; err != nil {
		return 0, apperr.External("failed to count products", err)
	}
	return n, nil
}

// Create inserts products in one transaction.
func (r *ProductRepository) Create(ctx context.Context, products ...*domain.Product) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrProductExists
		}
		return apperr.External("failed to create product", err)
	}
	return nil
}

// Save writes every column of an existing product.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	result := r.db.WithContext(ctx).Model(p).Select("*").Updates(p)
	if result.Error != nil {
		return apperr.External("failed to update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Delete removes a product by ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Product{}, "id = ?", id)
	if result.Error != nil {
		return apperr.External("failed to delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
