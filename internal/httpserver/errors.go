package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
)

type failure struct {
	target  error
	status  int
	message string
}

// Validation messages carry the offending field and are safe to show; the rest are fixed.
var failures = []failure{
	{service.ErrValidation, http.StatusBadRequest, ""},
	{service.ErrInvalidQuantity, http.StatusBadRequest, ""},
	{service.ErrOutOfStock, http.StatusBadRequest, "out of stock"},
	{service.ErrNotFound, http.StatusNotFound, "sweet not found"},
	{service.ErrConflict, http.StatusConflict, "email already registered"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{service.ErrForbidden, http.StatusForbidden, ""},
}

// fail logs err under event and converts it to the public HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	for _, f := range failures {
		if !errors.Is(err, f.target) {
			continue
		}
		msg := f.message
		if msg == "" {
			msg = err.Error()
		}
		l.Warn(event, "status", f.status, "reason", msg, "error", err)
		return echo.NewHTTPError(f.status, msg)
	}
	l.Error(event, "status", http.StatusInternalServerError, "reason", "internal error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
