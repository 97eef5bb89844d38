package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/pkg/logging"
	metricsmw "github.com/ken-b2024/ecommerce-api/pkg/middleware/metrics"
)

const welcome = "Welcome to the E-Commerce API Database!"

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB             Pinger
	UserHandler    *UserHTTP
	AccountHandler *AccountHTTP
	ProductHandler *ProductHTTP
	OrderHandler   *OrderHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, welcome) })
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)
	e.GET("/metrics", metricsmw.Handler())

	users := e.Group("/users")
	users.GET("", d.UserHandler.GetUsers)
	users.POST("", d.UserHandler.CreateUser)
	users.GET("/:id", d.UserHandler.GetUser)
	users.PUT("/:id", d.UserHandler.UpdateUser)
	users.DELETE("/:id", d.UserHandler.DeleteUser)

	user := e.Group("/user")
	user.GET("/:id", d.UserHandler.GetUser)
	user.PUT("/:id", d.UserHandler.UpdateUser)
	user.DELETE("/:id", d.UserHandler.DeleteUser)

	accounts := e.Group("/accounts")
	accounts.GET("", d.AccountHandler.GetAccounts)
	accounts.POST("", d.AccountHandler.CreateAccount)
	accounts.GET("/:user_id", d.AccountHandler.GetAccount)
	accounts.PUT("/:user_id", d.AccountHandler.UpdateAccount)
	accounts.DELETE("/:user_id", d.AccountHandler.DeleteAccount)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.POST("", d.ProductHandler.CreateProduct)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.PUT("/:id", d.ProductHandler.UpdateProduct)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct)

	e.GET("/stock/:id", d.ProductHandler.UpdateStock)
	e.PUT("/stock/:id", d.ProductHandler.UpdateStock)

	e.POST("/new-order", d.OrderHandler.CreateOrder)
	orders := e.Group("/orders")
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	if err := d.DB.Ping(c.Request().Context()); err != nil {
		logging.FromContext(c.Request().Context()).Error("readiness_check_failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.NoContent(http.StatusOK)
}
