package repo

import (
	"context"

	"github.com/ken-b2024/ecommerce-api/internal/models"
)

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *GormRepo) SaveUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.User{}, id).Error
}

// DetachOrders clears the owner of every order placed by the user so the
// order history survives the user's removal.
func (r *GormRepo) DetachOrders(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Update("user_id", nil).Error
}
