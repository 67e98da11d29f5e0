package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/middleware/auth"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	account, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	return c.JSON(http.StatusCreated, transport.NewAccountResponse(account))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_me")

	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return fail(l, "me_failed", service.ErrUnauthenticated)
	}

	account, err := h.Svc.Me(ctx, p.ID)
	if err != nil {
		return fail(l, "me_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewAccountResponse(account))
}
