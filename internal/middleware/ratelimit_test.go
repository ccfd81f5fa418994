package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rps, burst string) *RateLimiter {
	t.Helper()
	rl, err := NewRateLimiter(&config.RateLimitConfig{RequestsPerSecond: rps, Burst: burst}, logger.NewNop())
	require.NoError(t, err)
	return rl
}

func TestNewRateLimiter(t *testing.T) {
	rl, err := NewRateLimiter(nil, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 20, rl.burst)

	tests := []struct {
		name string
		cfg  config.RateLimitConfig
	}{
		{"Zero rate", config.RateLimitConfig{RequestsPerSecond: "0"}},
		{"Bad rate", config.RateLimitConfig{RequestsPerSecond: "fast"}},
		{"Zero burst", config.RateLimitConfig{Burst: "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRateLimiter(&tt.cfg, logger.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := newTestLimiter(t, "1", "2")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newTestLimiter(t, "1", "1")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Hour)
	rl.Allow("recent")

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 1, rl.Len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := newTestLimiter(t, "0.001", "1")
	userID := uuid.New()

	router := gin.New()
	router.GET("/anon", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/user", func(c *gin.Context) {
		c.Set(utils.UserIDKey, userID)
		c.Next()
	}, rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, get("/anon").Code)
	limited := get("/anon")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	// same IP, but keyed by user id once authenticated
	assert.Equal(t, http.StatusOK, get("/user").Code)
	assert.Equal(t, http.StatusTooManyRequests, get("/user").Code)
	assert.Equal(t, 2, rl.Len())
}
