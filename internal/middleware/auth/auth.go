package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/logging"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/tokens"
)

const principalKey = "principal"

// Principal is the authenticated caller attached to a request. It never carries the password hash.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  models.Role
}

type AccountFinder interface {
	FindAccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type Authenticator struct {
	Tokens   *tokens.Service
	Accounts AccountFinder
	Timeout  time.Duration
}

func NewAuthenticator(t *tokens.Service, accounts AccountFinder, timeout time.Duration) *Authenticator {
	return &Authenticator{Tokens: t, Accounts: accounts, Timeout: timeout}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func tokenFailure(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return "expired token"
	case errors.Is(err, tokens.ErrBadSignature):
		return "bad signature"
	default:
		return "malformed token"
	}
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer token of an
// existing account. Every rejection uses the same public message.
func (m *Authenticator) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "auth")

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		claims, err := m.Tokens.Verify(raw)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", tokenFailure(err), "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		timeout := m.Timeout
		if timeout <= 0 {
			timeout = service.DefaultTimeout
		}
		dbCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		account, err := m.Accounts.FindAccountByID(dbCtx, claims.AccountID())
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				l.Warn("auth_failed", "status", 401, "reason", "account not found", "account_id", claims.Subject)
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			l.Error("auth_failed", "status", 500, "reason", "cannot load account", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}

		p := &Principal{ID: account.ID, Email: account.Email, Role: account.Role}
		c.Set(principalKey, p)

		l = logging.FromContext(ctx).With("account_id", p.ID)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))

		return next(c)
	}
}

func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(principalKey).(*Principal)
	return p, ok && p != nil
}

// RequireRole reports whether p may act with role. Admins hold every role.
func RequireRole(p *Principal, role models.Role) error {
	if p == nil {
		return service.ErrUnauthenticated
	}
	switch role {
	case models.RoleCustomer:
		if p.Role == models.RoleCustomer || p.Role == models.RoleAdmin {
			return nil
		}
	case models.RoleAdmin:
		if p.Role == models.RoleAdmin {
			return nil
		}
	}
	return service.ErrForbidden
}

// RequireAdmin must be mounted after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context()).With("mw", "admin")

		p, _ := PrincipalFrom(c)
		if err := RequireRole(p, models.RoleAdmin); err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				l.Warn("admin_check_failed", "status", 401, "reason", "no principal")
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			l.Warn("admin_check_failed", "status", 403, "reason", "not an admin", "role", p.Role)
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}
