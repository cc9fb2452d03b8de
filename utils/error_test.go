package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
	Logger = zap.NewNop()
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body.Error)
}

func TestJSONError(t *testing.T) {
	r := gin.New()
	r.GET("/missing", func(c *gin.Context) {
		JSONError(c, zap.NewNop(), http.StatusNotFound, "room_not_found", "room not found")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"room_not_found","message":"room not found"}`, w.Body.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn", true))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("", true))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("loud", false))
}

func TestHealthStatusHealthy(t *testing.T) {
	assert.True(t, HealthStatus{Mongo: true, Redis: []bool{true, true}}.Healthy())
	assert.False(t, HealthStatus{Mongo: true, Redis: []bool{true, false}}.Healthy())
	assert.False(t, HealthStatus{Mongo: false}.Healthy())
}
