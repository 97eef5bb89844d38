package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ken-b2024/ecommerce-api/internal/models"
)

func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Create(product).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.DB.WithContext(ctx).Save(product).Error
}

func (r *GormRepo) SetStock(ctx context.Context, id uint, quantity int) error {
	return r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// DecrementStock takes quantity units off the product only if that many are
// in stock. It reports false when the guard did not match, which covers both
// a short stock and a concurrent order that got there first. A quantity
// below one is rejected before any SQL runs.
func (r *GormRepo) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("decrement stock of product %d: quantity must be > 0, got %d", id, quantity)
	}
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *GormRepo) DeleteOrderLinesByProduct(ctx context.Context, productID uint) error {
	return r.DB.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.OrderProduct{}).Error
}
