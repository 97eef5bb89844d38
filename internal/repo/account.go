package repo

import (
	"context"

	"github.com/ken-b2024/ecommerce-api/internal/models"
)

func (r *GormRepo) ListAccounts(ctx context.Context) ([]models.CustomerAccount, error) {
	accounts := []models.CustomerAccount{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *GormRepo) GetAccountByUser(ctx context.Context, userID uint) (*models.CustomerAccount, error) {
	var account models.CustomerAccount
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// UsernameTaken reports whether another account already uses username.
func (r *GormRepo) UsernameTaken(ctx context.Context, username string, exceptID uint) (bool, error) {
	var count int64
	q := r.DB.WithContext(ctx).Model(&models.CustomerAccount{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) CreateAccount(ctx context.Context, account *models.CustomerAccount) error {
	return r.DB.WithContext(ctx).Create(account).Error
}

func (r *GormRepo) SaveAccount(ctx context.Context, account *models.CustomerAccount) error {
	return r.DB.WithContext(ctx).Save(account).Error
}

func (r *GormRepo) DeleteAccountByUser(ctx context.Context, userID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CustomerAccount{})
	return res.RowsAffected, res.Error
}
