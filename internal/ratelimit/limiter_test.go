package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/profile-insights/internal/errors"
	"github.com/ZanzyTHEbar/profile-insights/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFallbackLimiter(t *testing.T) (*RateLimiter, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(&RedisClient{enabled: false}, DefaultConfig(), metrics)
	t.Cleanup(limiter.Close)
	return limiter, metrics
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "test:client", PerMinute(5))
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.Allow(ctx, "test:client", PerMinute(5))
	require.NoError(t, err)
	assert.False(t, result.Allowed, "6th request should be blocked")
	assert.Equal(t, 0, result.Remaining)
	assert.GreaterOrEqual(t, result.RetryAfter, time.Second)
	assert.Equal(t, int64(6), metrics.RateLimitFallbackCount)
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newFallbackLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.AllowEndpoint(ctx, EndpointCompare, "10.0.0.1", 5)
		require.NoError(t, err)
	}

	blocked, err := limiter.AllowEndpoint(ctx, EndpointCompare, "10.0.0.1", 5)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	other, err := limiter.AllowEndpoint(ctx, EndpointCompare, "10.0.0.2", 5)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	profile, err := limiter.AllowEndpoint(ctx, EndpointProfile, "10.0.0.1", 10)
	require.NoError(t, err)
	assert.True(t, profile.Allowed)
}

func TestRateLimiterInvalidRate(t *testing.T) {
	limiter, _ := newFallbackLimiter(t)

	_, err := limiter.Allow(context.Background(), "k", Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
}

func TestRateLimiterNilRedisClient(t *testing.T) {
	limiter := NewRateLimiter(nil, Config{ProfilePerMin: 10, ComparePerMin: 5}, nil)
	defer limiter.Close()

	result, err := limiter.Allow(context.Background(), "k", PerMinute(1))
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	stats := limiter.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["fallback_limiters"])
	assert.Equal(t, 1, limiter.Config().BurstMultiplier)
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, metrics := newFallbackLimiter(t)

	router := gin.New()
	router.POST("/compare", limiter.EndpointRateLimitMiddleware(EndpointCompare, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/compare", nil))
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, errors.CategoryRateLimit, body.Category)
	assert.Equal(t, int64(1), metrics.RateLimitBlocks)
}
