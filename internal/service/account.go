package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
)

// AccountService manages the single customer account a user may own.
// Accounts are addressed by the owning user's id.
type AccountService struct {
	Repo *repo.GormRepo
}

func accountNotFound(err error, userID uint) error {
	return notFound(err, "account for user", userID)
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]models.CustomerAccount, error) {
	return s.Repo.ListAccounts(ctx)
}

func (s *AccountService) GetAccount(ctx context.Context, userID uint) (*models.CustomerAccount, error) {
	a, err := s.Repo.GetAccountByUser(ctx, userID)
	if err != nil {
		return nil, accountNotFound(err, userID)
	}
	return a, nil
}

func (s *AccountService) CreateAccount(ctx context.Context, req transport.CreateAccountRequest) (*models.CustomerAccount, error) {
	if req.Username == nil || req.Password == nil || req.UserID == nil {
		return nil, fmt.Errorf("%w: username, password and user_id required", ErrValidation)
	}
	userID := *req.UserID

	account := &models.CustomerAccount{
		Username: *req.Username,
		Password: *req.Password,
		UserID:   userID,
	}
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return notFound(err, "user", userID)
		}
		_, err := tx.GetAccountByUser(ctx, userID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user %d already has an account", ErrConflict, userID)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		taken, err := tx.UsernameTaken(ctx, account.Username, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: username %q already exists", ErrConflict, account.Username)
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return conflict(err, "username %q already exists", account.Username)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, userID uint, req transport.UpdateAccountRequest) (*models.CustomerAccount, error) {
	if req.Username == nil || req.Password == nil {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	var account *models.CustomerAccount
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		a, err := tx.GetAccountByUser(ctx, userID)
		if err != nil {
			return accountNotFound(err, userID)
		}
		taken, err := tx.UsernameTaken(ctx, *req.Username, a.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: username %q already exists", ErrConflict, *req.Username)
		}
		a.Username, a.Password = *req.Username, *req.Password
		if err := tx.SaveAccount(ctx, a); err != nil {
			return conflict(err, "username %q already exists", a.Username)
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID uint) error {
	n, err := s.Repo.DeleteAccountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return &NotFoundError{Entity: "account for user", ID: userID}
	}
	return nil
}
