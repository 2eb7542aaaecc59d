package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericborczuk/cloud-asset-manager/common/logger"
	"github.com/ericborczuk/cloud-asset-manager/common/ratelimit"
)

// unreachableLimiter is backed by a redis address nothing listens on,
// forcing every check down the fail-open path
func unreachableLimiter() *ratelimit.RateLimiter {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return ratelimit.NewRateLimiter(client, logger.New("error", "json"))
}

func serveWith(mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	e.Use(mw)
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGlobalRateLimitFailsOpen(t *testing.T) {
	rec := serveWith(GlobalRateLimitMiddleware(unreachableLimiter(), 10, 60))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestClientRateLimitFailsOpen(t *testing.T) {
	rec := serveWith(ClientRateLimitMiddleware(unreachableLimiter(), 10, 60))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}
