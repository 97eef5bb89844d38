package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/internal/schema"
	"github.com/ken-b2024/ecommerce-api/internal/service"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

type ProductHTTP struct {
	Svc *service.ProductService
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	products, err := h.Svc.ListProducts(ctx)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c, l, "get_product_error", "id")
	if err != nil {
		return err
	}
	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.ProductRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "create_product_error", err)
	}
	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_product")

	id, err := parseID(c, l, "update_product_error", "id")
	if err != nil {
		return err
	}
	var req transport.ProductRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "update_product_error", err)
	}
	product, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", id)
	return c.JSON(http.StatusOK, product)
}

// UpdateStock overwrites the stock level. It is mounted on both GET and PUT;
// older clients set stock with a GET carrying a body.
func (h *ProductHTTP) UpdateStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update_stock")

	id, err := parseID(c, l, "update_stock_error", "id")
	if err != nil {
		return err
	}
	var req transport.StockRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "update_stock_error", err)
	}
	product, err := h.Svc.SetStock(ctx, id, req)
	if err != nil {
		return fail(l, "update_stock_error", err)
	}

	l.Info("update_stock_success", "product_id", id, "quantity", product.Quantity)
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := parseID(c, l, "delete_product_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}
