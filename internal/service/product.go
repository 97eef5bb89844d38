package service

import (
	"context"
	"fmt"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
)

type ProductService struct {
	Repo   *repo.GormRepo
	Cache  *ProductCache
	Events mykafka.Publisher
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if p, ok := s.Cache.get(ctx, id); ok {
		return p, nil
	}
	gen := s.Cache.generation(id)
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	s.Cache.put(ctx, p, gen)
	return p, nil
}

func productFields(req transport.ProductRequest) error {
	if req.Name == nil || req.Price == nil || req.Quantity == nil {
		return fmt.Errorf("%w: name, price and quantity required", ErrValidation)
	}
	if *req.Price < 0 || *req.Quantity < 0 {
		return fmt.Errorf("%w: price and quantity must be >= 0", ErrValidation)
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if err := productFields(req); err != nil {
		return nil, err
	}
	p := &models.Product{Name: *req.Name, Price: *req.Price, Quantity: *req.Quantity}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, idKey(p.ID), EventProductCreated, p)
	return p, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error) {
	if err := productFields(req); err != nil {
		return nil, err
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	p.Name, p.Price, p.Quantity = *req.Name, *req.Price, *req.Quantity
	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.Cache.invalidate(ctx, id)
	publish(ctx, s.Events, idKey(id), EventProductUpdated, p)
	return p, nil
}

// SetStock overwrites the stock level of a product.
func (s *ProductService) SetStock(ctx context.Context, id uint, req transport.StockRequest) (*models.Product, error) {
	if req.Quantity == nil || *req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}

	var product *models.Product
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err, "product", id)
		}
		if err := tx.SetStock(ctx, id, *req.Quantity); err != nil {
			return err
		}
		p.Quantity = *req.Quantity
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Cache.invalidate(ctx, id)
	publish(ctx, s.Events, idKey(id), EventStockUpdated, map[string]any{"id": id, "quantity": product.Quantity})
	return product, nil
}

// DeleteProduct removes the product and every order line that references it.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetProduct(ctx, id); err != nil {
			return notFound(err, "product", id)
		}
		if err := tx.DeleteOrderLinesByProduct(ctx, id); err != nil {
			return err
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Cache.invalidate(ctx, id)
	publish(ctx, s.Events, idKey(id), EventProductDeleted, map[string]uint{"id": id})
	return nil
}
