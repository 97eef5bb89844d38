package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/ken-b2024/ecommerce-api/internal/models"
)

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("OrderProducts", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_id ASC")
	})
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := withLines(r.DB.WithContext(ctx)).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := withLines(r.DB.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder inserts the order row and then one join row per line.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	lines := order.OrderProducts
	order.OrderProducts = nil

	db := r.DB.WithContext(ctx)
	if err := db.Omit("User").Create(order).Error; err != nil {
		return err
	}

	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if len(lines) > 0 {
		if err := db.Omit("Product").Create(&lines).Error; err != nil {
			return err
		}
	}
	order.OrderProducts = lines
	return nil
}

func (r *GormRepo) DeleteOrderLines(ctx context.Context, orderID uint) error {
	return r.DB.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.OrderProduct{}).Error
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Order{}, id).Error
}
