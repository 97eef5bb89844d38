package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ken-b2024/ecommerce-api/internal/models"
	"github.com/ken-b2024/ecommerce-api/internal/mykafka"
	"github.com/ken-b2024/ecommerce-api/internal/repo"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

type OrderService struct {
	Repo     *repo.GormRepo
	Products *ProductCache
	Events   mykafka.Publisher
}

type orderCreated struct {
	OrderID    uint                  `json:"order_id"`
	UserID     *uint                 `json:"user_id"`
	Date       string                `json:"date"`
	TotalPrice float64               `json:"total_price"`
	Items      []models.OrderProduct `json:"items"`
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return o, nil
}

// mergeLines folds repeated product ids into one line, keeping the order in
// which each product first appeared. A summed quantity saturates at
// math.MaxInt, which no stock level can satisfy.
func mergeLines(items []transport.OrderItem) ([]models.OrderProduct, error) {
	lines := make([]models.OrderProduct, 0, len(items))
	index := make(map[uint]int, len(items))
	for i, it := range items {
		if it.ProductID == nil {
			return nil, fmt.Errorf("%w: items[%d].product_id required", ErrValidation, i)
		}
		if it.Quantity == nil || *it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: items[%d].quantity must be > 0", ErrValidation, i)
		}
		if j, ok := index[*it.ProductID]; ok {
			if *it.Quantity > math.MaxInt-lines[j].Quantity {
				lines[j].Quantity = math.MaxInt
			} else {
				lines[j].Quantity += *it.Quantity
			}
			continue
		}
		index[*it.ProductID] = len(lines)
		lines = append(lines, models.OrderProduct{ProductID: *it.ProductID, Quantity: *it.Quantity})
	}
	return lines, nil
}

func rejectReason(err error) string {
	var nf *NotFoundError
	switch {
	case errors.Is(err, ErrNoItems):
		return "no_items"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.As(err, &nf):
		return nf.Entity + "_not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	default:
		return "internal"
	}
}

// PlaceOrder checks every line against stock, takes the ordered quantities
// off the products and records the order, all in one transaction. Any failed
// line leaves the database untouched.
func (s *OrderService) PlaceOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	order, err := s.placeOrder(ctx, req)
	if err != nil {
		ordersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	ids := make([]uint, 0, len(order.OrderProducts))
	for _, line := range order.OrderProducts {
		ids = append(ids, line.ProductID)
	}
	s.Products.invalidate(ctx, ids...)

	publish(ctx, s.Events, idKey(order.ID), EventOrderCreated, orderCreated{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Date:       order.Date,
		TotalPrice: order.TotalPrice,
		Items:      order.OrderProducts,
	})
	ordersPlaced.Inc()
	orderValue.Observe(order.TotalPrice)

	logging.FromContext(ctx).Info("order_placed",
		"order_id", order.ID,
		"user_id", *order.UserID,
		"lines", len(order.OrderProducts),
		"total_price", order.TotalPrice,
	)
	return order, nil
}

func (s *OrderService) placeOrder(ctx context.Context, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if req.Date == nil || req.UserID == nil {
		return nil, fmt.Errorf("%w: date and user_id required", ErrValidation)
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	userID := *req.UserID
	order := &models.Order{Date: *req.Date, UserID: &userID}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return notFound(err, "user", userID)
		}

		total := decimal.Zero
		for _, line := range lines {
			p, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil {
				return notFound(err, "product", line.ProductID)
			}
			short := &StockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.Quantity,
			}
			if line.Quantity > p.Quantity {
				return short
			}
			ok, err := tx.DecrementStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return short
			}
			total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order.TotalPrice = total.InexactFloat64()
		order.OrderProducts = lines
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteOrder removes the order and its lines. Stock taken by the order is
// not put back.
func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if _, err := tx.GetOrder(ctx, id); err != nil {
			return notFound(err, "order", id)
		}
		if err := tx.DeleteOrderLines(ctx, id); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}
	publish(ctx, s.Events, idKey(id), EventOrderDeleted, map[string]uint{"id": id})
	return nil
}
