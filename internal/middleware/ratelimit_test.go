package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfermar/booking-backend/internal/config"
)

func TestAsInt64(t *testing.T) {
	assert.Equal(t, int64(5), asInt64(int64(5)))
	assert.Equal(t, int64(5), asInt64(5))
	assert.Equal(t, int64(5), asInt64(5.9))
	assert.Equal(t, int64(5), asInt64("5"))
	assert.Equal(t, int64(0), asInt64("nope"))
	assert.Equal(t, int64(0), asInt64(nil))
}

func TestBuildRateKeyStrategies(t *testing.T) {
	e := echo.New()
	newCtx := func(uid interface{}) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/bookings")
		if uid != nil {
			c.Set("user_id", uid)
		}
		return c
	}

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
	assert.Equal(t, "rl:ip:10.1.2.3", buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, newCtx(float64(42))))
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, newCtx(nil)))

	cfg.KeyStrategy = "user_route"
	assert.Equal(t, "rl:user:42:route:GET /v1/bookings", buildRateKey(cfg, newCtx(uint64(42))))
}

func TestNewTokenBucketDisabledPassthrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
}
