package service

import (
	"context"
	"fmt"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events mykafka.Publisher
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return u, nil
}

func (s *UserService) CreateUser(ctx context.Context, req transport.UserRequest) (*models.User, error) {
	if req.Name == nil || req.Email == nil || req.Phone == nil {
		return nil, fmt.Errorf("%w: name, email and phone required", ErrValidation)
	}
	u := &models.User{Name: *req.Name, Email: *req.Email, Phone: *req.Phone}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, idKey(u.ID), EventUserCreated, u)
	return u, nil
}

// UpdateUser overwrites every field of an existing user.
func (s *UserService) UpdateUser(ctx context.Context, id uint, req transport.UserRequest) (*models.User, error) {
	if req.Name == nil || req.Email == nil || req.Phone == nil {
		return nil, fmt.Errorf("%w: name, email and phone required", ErrValidation)
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Name, u.Email, u.Phone = *req.Name, *req.Email, *req.Phone
	if err := s.Repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, idKey(u.ID), EventUserUpdated, u)
	return u, nil
}

// DeleteUser removes the user together with its account. Orders placed by
// the user are kept with user_id cleared.
func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUser(ctx, id); err != nil {
			return notFound(err, "user", id)
		}
		if _, err := tx.DeleteAccountByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.DetachOrders(ctx, id); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.Events, idKey(id), EventUserDeleted, map[string]uint{"id": id})
	return nil
}
