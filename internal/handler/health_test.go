package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	newCtx := func(v interface{}) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if v != nil {
			c.Set("user_id", v)
		}
		return c
	}

	// JWT numeric claims decode as float64
	id, err := getUserID(newCtx(float64(42)))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	id, err = getUserID(newCtx(uint64(7)))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	id, err = getUserID(newCtx("19"))
	require.NoError(t, err)
	assert.Equal(t, uint64(19), id)

	_, err = getUserID(newCtx(nil))
	assert.Error(t, err)

	_, err = getUserID(newCtx("not-a-number"))
	assert.Error(t, err)
}
