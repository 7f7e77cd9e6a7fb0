package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfermar/booking-backend/internal/utils"
)

func runProtected(t *testing.T, secret, authHeader string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h(c))
	return rec
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := runProtected(t, "secret", "", JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthBadToken(t *testing.T) {
	rec := runProtected(t, "secret", "Bearer not-a-jwt", JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 7, "CUSTOMER", 5)
	require.NoError(t, err)
	rec := runProtected(t, "secret", "Bearer "+at.Token, JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidTokenPopulatesContext(t *testing.T) {
	at, err := utils.NewAccessToken("secret", 7, "CUSTOMER", 5)
	require.NoError(t, err)

	e := echo.New()
	var gotRole interface{}
	h := JWTAuth("secret")(func(c echo.Context) error {
		gotRole = c.Get("role")
		return c.String(http.StatusOK, "ok")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CUSTOMER", gotRole)
}

func TestJWTAuthThenRequireRole(t *testing.T) {
	at, err := utils.NewAccessToken("secret", 9, "ADMIN", 5)
	require.NoError(t, err)

	rec := runProtected(t, "secret", "Bearer "+at.Token, JWTAuth("secret"), RequireRole("ADMIN"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runProtected(t, "secret", "Bearer "+at.Token, JWTAuth("secret"), RequireRole("CUSTOMER"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
