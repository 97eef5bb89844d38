package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/internal/schema"
	"github.com/ken-b2024/ecommerce-api/internal/service"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "create_order_error", err)
	}
	order, err := h.Svc.PlaceOrder(ctx, req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, transport.CreateOrderResponse{
		Message: "Order created successfully",
		OrderID: order.ID,
	})
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	orders, err := h.Svc.ListOrders(ctx)
	if err != nil {
		return fail(l, "get_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := parseID(c, l, "get_order_error", "id")
	if err != nil {
		return err
	}
	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := parseID(c, l, "delete_order_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteOrder(ctx, id); err != nil {
		return fail(l, "delete_order_error", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
