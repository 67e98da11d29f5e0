package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/models"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/service"
	"github.com/Swastik007sharma/sweet-shop-manager/internal/tokens"
)

type fakeAccounts struct {
	accounts map[uuid.UUID]*models.Account
	err      error
}

func (f *fakeAccounts) FindAccountByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return a, nil
}

type fixture struct {
	e        *echo.Echo
	tokens   *tokens.Service
	accounts *fakeAccounts
	admin    *models.Account
	customer *models.Account
	calls    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tok, err := tokens.NewService([]byte("mw-secret"), time.Hour)
	require.NoError(t, err)

	f := &fixture{
		tokens:   tok,
		admin:    &models.Account{ID: uuid.New(), Email: "admin@x.io", Role: models.RoleAdmin, PasswordHash: "h"},
		customer: &models.Account{ID: uuid.New(), Email: "c@x.io", Role: models.RoleCustomer, PasswordHash: "h"},
	}
	f.accounts = &fakeAccounts{accounts: map[uuid.UUID]*models.Account{
		f.admin.ID:    f.admin,
		f.customer.ID: f.customer,
	}}

	gate := NewAuthenticator(tok, f.accounts, time.Second)
	handler := func(c echo.Context) error {
		f.calls++
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, map[string]any{"id": p.ID, "role": p.Role})
	}

	f.e = echo.New()
	g := f.e.Group("/api", gate.RequireAuth)
	g.GET("/me", handler)
	g.POST("/admin", handler, RequireAdmin)
	return f
}

func (f *fixture) token(t *testing.T, a *models.Account) string {
	t.Helper()
	tok, _, err := f.tokens.Issue(a.ID, string(a.Role))
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set(echo.HeaderAuthorization, authz)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_Rejections(t *testing.T) {
	f := newFixture(t)

	other, err := tokens.NewService([]byte("other-secret"), time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue(f.customer.ID, "admin")
	require.NoError(t, err)

	ghost, _, err := f.tokens.Issue(uuid.New(), "customer")
	require.NoError(t, err)

	tests := []struct {
		name  string
		authz string
	}{
		{name: "missing header", authz: ""},
		{name: "wrong scheme", authz: "Basic " + f.token(t, f.customer)},
		{name: "empty bearer", authz: "Bearer "},
		{name: "garbage", authz: "Bearer abc.def"},
		{name: "foreign signature", authz: "Bearer " + forged},
		{name: "unknown account", authz: "Bearer " + ghost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/me", tt.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"message":"authentication required"}`, rec.Body.String())
		})
	}
	assert.Zero(t, f.calls)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	now := time.Now().Add(-2 * time.Hour)
	old, err := tokens.NewService([]byte("mw-secret"), time.Hour, tokens.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	expired, _, err := old.Issue(f.customer.ID, "customer")
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/me", "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_StoreFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.accounts.err = errors.New("db down")

	rec := f.do(http.MethodGet, "/api/me", "Bearer "+f.token(t, f.customer))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestRequireAuth_AttachesPrincipalFromStore(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/me", "bearer "+f.token(t, f.customer))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.customer.ID.String())
	assert.Contains(t, rec.Body.String(), `"role":"customer"`)
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/admin", "Bearer "+f.token(t, f.customer))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, f.calls)

	rec = f.do(http.MethodPost, "/api/admin", "Bearer "+f.token(t, f.admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.calls)
}

func TestRequireAdmin_UsesStoredRole(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, f.admin)
	f.admin.Role = models.RoleCustomer

	rec := f.do(http.MethodPost, "/api/admin", "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	admin := &Principal{ID: uuid.New(), Role: models.RoleAdmin}
	customer := &Principal{ID: uuid.New(), Role: models.RoleCustomer}

	assert.NoError(t, RequireRole(admin, models.RoleAdmin))
	assert.NoError(t, RequireRole(admin, models.RoleCustomer))
	assert.NoError(t, RequireRole(customer, models.RoleCustomer))
	assert.ErrorIs(t, RequireRole(customer, models.RoleAdmin), service.ErrForbidden)
	assert.ErrorIs(t, RequireRole(&Principal{Role: "root"}, models.RoleCustomer), service.ErrForbidden)
	assert.ErrorIs(t, RequireRole(nil, models.RoleCustomer), service.ErrUnauthenticated)
}
