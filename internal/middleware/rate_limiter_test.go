package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func postSession(e *echo.Echo, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_BurstPerClient(t *testing.T) {
	e := echo.New()
	e.POST("/auth/session", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimiter(3))

	for i := range 3 {
		assert.Equal(t, http.StatusNoContent, postSession(e, "198.51.100.7:4000"), "attempt %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, postSession(e, "198.51.100.7:4001"))

	// another address has its own bucket
	assert.Equal(t, http.StatusNoContent, postSession(e, "198.51.100.8:4000"))
}

func TestRateLimiter_FractionalRateKeepsBurstOfOne(t *testing.T) {
	e := echo.New()
	e.POST("/auth/session", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimiter(0.01))

	assert.Equal(t, http.StatusNoContent, postSession(e, "203.0.113.1:1"))

	req := httptest.NewRequest(http.MethodPost, "/auth/session", nil)
	req.RemoteAddr = "203.0.113.1:2"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many requests")
}
