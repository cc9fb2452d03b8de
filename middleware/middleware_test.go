package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func request(r http.Handler, forwardedFor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddlewareIsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, request(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request(r, "10.0.0.1, 172.16.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request(r, "10.0.0.2").Code)
}

func TestRateLimitMiddlewareIgnoresForwardingFromUntrustedPeers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NoError(t, TrustProxies(r, []string{"10.9.9.9"}))
	r.Use(RateLimitMiddleware(1))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	// httptest requests come from 192.0.2.1, which is not a trusted proxy,
	// so a spoofed header does not earn a fresh bucket.
	assert.Equal(t, http.StatusOK, request(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(r, "10.0.0.2").Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen *zap.Logger
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) {
		l, _ := c.Get("logger")
		seen, _ = l.(*zap.Logger)
		c.Status(http.StatusNoContent)
	})

	w := request(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.NotNil(t, seen)
	if assert.Equal(t, 1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal(t, "request", entry.Message)
		assert.Equal(t, int64(http.StatusNoContent), entry.ContextMap()["status"])
		assert.Equal(t, w.Header().Get(RequestIDHeader), entry.ContextMap()["requestId"])
	}
}
