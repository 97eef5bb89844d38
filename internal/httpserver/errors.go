package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/internal/schema"
	"github.com/ken-b2024/ecommerce-api/internal/service"
)

// fail logs err under event and converts it into the HTTP error the client
// sees. Unclassified errors are returned as 500 with their text.
func fail(l *slog.Logger, event string, err error) error {
	var se *schema.Error
	switch {
	case errors.As(err, &se):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  se.Fields,
		})
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "insufficient stock", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusConflict, "reason", "conflict", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func parseID(c echo.Context, l *slog.Logger, event, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil {
		l.Warn(event, "status", http.StatusBadRequest, "reason", name+" is not an integer", "error", err)
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+": "+strconv.Quote(raw))
	}
	return uint(id), nil
}
