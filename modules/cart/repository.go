package cart

import (
	"context"

	"github.com/example/glamup-shop-verse/domain/apperr"
	domain "github.com/example/glamup-shop-verse/domain/cart"
	"gorm.io/gorm"
)

// CartRepository persists cart rows. Every query is scoped to one user.
type CartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Migrate creates or updates the cart_items table.
func (r *CartRepository) Migrate() error {
	return r.db.AutoMigrate(&domain.Row{})
}

// Rows returns the user's rows in the order they were added.
func (r *CartRepository) Rows(ctx context.Context, userID string) ([]domain.Row, error) {
	var rows []domain.Row
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.External("failed to load cart", err)
	}
	return rows, nil
}

// Insert stores a new row.
func (r *CartRepository) Insert(ctx context.Context, row domain.Row) error {
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return apperr.External("failed to insert cart item", err)
	}
	return nil
}

// UpdateQuantity writes the quantity of an existing row of userID.
func (r *CartRepository) UpdateQuantity(ctx context.Context, userID string, row domain.Row) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Row{}).
		Where("id = ? AND user_id = ?", row.ID, userID).
		Updates(map[string]any{"quantity": row.Quantity, "updated_at": row.UpdatedAt})
	if result.Error != nil {
		return apperr.External("failed to update cart item", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRowNotFound
	}
	return nil
}

// Delete removes one row of userID. Deleting an absent row succeeds.
func (r *CartRepository) Delete(ctx context.Context, userID, rowID string) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", rowID, userID).
		Delete(&domain.Row{}).Error
	if err != nil {
		return apperr.External("failed to delete cart item", err)
	}
	return nil
}

// Clear removes every row of userID.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Row{}).Error; err != nil {
		return apperr.External("failed to clear cart", err)
	}
	return nil
}
