package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/internal/schema"
	"github.com/ken-b2024/ecommerce-api/internal/service"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_users")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return fail(l, "get_users_error", err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_user")

	id, err := parseID(c, l, "get_user_error", "id")
	if err != nil {
		return err
	}
	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		return fail(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) CreateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create_user")

	var req transport.UserRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "create_user_error", err)
	}
	user, err := h.Svc.CreateUser(ctx, req)
	if err != nil {
		return fail(l, "create_user_error", err)
	}

	l.Info("create_user_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHTTP) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_user")

	id, err := parseID(c, l, "update_user_error", "id")
	if err != nil {
		return err
	}
	var req transport.UserRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "update_user_error", err)
	}
	user, err := h.Svc.UpdateUser(ctx, id, req)
	if err != nil {
		return fail(l, "update_user_error", err)
	}

	l.Info("update_user_success", "user_id", id)
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete_user")

	id, err := parseID(c, l, "delete_user_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		return fail(l, "delete_user_error", err)
	}

	l.Info("delete_user_success", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}
