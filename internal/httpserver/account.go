package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ken-b2024/ecommerce-api/internal/schema"
	"github.com/ken-b2024/ecommerce-api/internal/service"
	"github.com/ken-b2024/ecommerce-api/internal/transport"
	"github.com/ken-b2024/ecommerce-api/pkg/logging"
)

type AccountHTTP struct {
	Svc *service.AccountService
}

func (h *AccountHTTP) GetAccounts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.get_accounts")

	accounts, err := h.Svc.ListAccounts(ctx)
	if err != nil {
		return fail(l, "get_accounts_error", err)
	}
	return c.JSON(http.StatusOK, accounts)
}

func (h *AccountHTTP) GetAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.get_account")

	userID, err := parseID(c, l, "get_account_error", "user_id")
	if err != nil {
		return err
	}
	account, err := h.Svc.GetAccount(ctx, userID)
	if err != nil {
		return fail(l, "get_account_error", err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHTTP) CreateAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.create_account")

	var req transport.CreateAccountRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "create_account_error", err)
	}
	account, err := h.Svc.CreateAccount(ctx, req)
	if err != nil {
		return fail(l, "create_account_error", err)
	}

	l.Info("create_account_success", "user_id", account.UserID)
	return c.JSON(http.StatusCreated, account)
}

func (h *AccountHTTP) UpdateAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_account")

	userID, err := parseID(c, l, "update_account_error", "user_id")
	if err != nil {
		return err
	}
	var req transport.UpdateAccountRequest
	if err := schema.Bind(c, &req); err != nil {
		return fail(l, "update_account_error", err)
	}
	account, err := h.Svc.UpdateAccount(ctx, userID, req)
	if err != nil {
		return fail(l, "update_account_error", err)
	}

	l.Info("update_account_success", "user_id", userID)
	return c.JSON(http.StatusOK, account)
}

func (h *AccountHTTP) DeleteAccount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.delete_account")

	userID, err := parseID(c, l, "delete_account_error", "user_id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteAccount(ctx, userID); err != nil {
		return fail(l, "delete_account_error", err)
	}

	l.Info("delete_account_success", "user_id", userID)
	return c.NoContent(http.StatusNoContent)
}
