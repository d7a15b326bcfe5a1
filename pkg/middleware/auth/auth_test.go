package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/shop_payments/pkg/tokens"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func newEcho(m *JWTAuth) *echo.Echo {
	e := echo.New()
	ok := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(CtxUserID), "role": c.Get(CtxRole)})
	}
	e.GET("/private", ok, m.RequireAuth)
	e.GET("/admin", ok, m.RequireAdmin)
	return e
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(secret, 5, role, "u@shop.local", time.Now().Add(time.Minute))
	require.NoError(t, err)
	return tok
}

func TestRequireAuth(t *testing.T) {
	e := newEcho(NewJWTAuth(secret))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "missing", setup: func(r *http.Request) {}, status: http.StatusUnauthorized},
		{name: "garbage bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, "user")) }, status: http.StatusOK},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token(t, "user")}) }, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	e := newEcho(NewJWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "admin"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"5"`)
}
