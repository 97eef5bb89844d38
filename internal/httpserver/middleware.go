package httpserver

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	loggingmw "github.com/ken-b2024/ecommerce-api/pkg/middleware/logging"
	metricsmw "github.com/ken-b2024/ecommerce-api/pkg/middleware/metrics"
)

// Use installs the middleware chain, outermost first. Metrics wraps the
// request logger so it sees the rendered status; Recover sits inside the
// logger so a panic is logged as a 500 with its request id.
func Use(e *echo.Echo, logger *slog.Logger, rateLimitRPS int) {
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Secure())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(metricsmw.Metrics())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.Recover())
	if rateLimitRPS > 0 {
		e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(rate.Limit(rateLimitRPS))))
	}
}
