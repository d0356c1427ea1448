package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRouter creates a test Gin router with rate limiter
func setupTestRouter(redisClient *redis.Client, config *RateLimiterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.Use(RateLimiterMiddleware(redisClient, config))

	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	return router
}

func requestFrom(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_RedisFailure_FailOpen(t *testing.T) {
	// Non-existent Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:       "localhost:9999",
		MaxRetries: -1,
	})
	defer redisClient.Close()

	router := setupTestRouter(redisClient, StrictRateLimiter())

	for i := 0; i < 5; i++ {
		w := requestFrom(router, "192.0.2.1:40000")
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should pass when Redis is down", i+1)
	}
}

func TestRateLimitDetails(t *testing.T) {
	details := rateLimitDetails(StrictRateLimiter())
	assert.Equal(t, "Maximum 0.1 requests per second allowed", details["message"])
	assert.Equal(t, "10.0 seconds", details["retry_after"])

	details = rateLimitDetails(DefaultRateLimiterConfig())
	assert.Equal(t, "Maximum 10 requests per second allowed", details["message"])
	assert.Equal(t, "0.1 seconds", details["retry_after"])
}

func TestClientRateLimiterKey(t *testing.T) {
	tests := []struct {
		name     string
		clientIP string
		expected string
	}{
		{
			name:     "IPv4",
			clientIP: "192.0.2.1",
			expected: "rate_limiter:client:192.0.2.1",
		},
		{
			name:     "IPv6",
			clientIP: "2001:db8::1",
			expected: "rate_limiter:client:2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClientRateLimiterKey(tt.clientIP))
		})
	}
}

func TestRateLimiterPresets(t *testing.T) {
	config := DefaultRateLimiterConfig()
	require.NotNil(t, config)
	assert.Equal(t, 20, config.Capacity)
	assert.Equal(t, 10.0, config.RefillRate)

	assert.Equal(t, 3, StrictRateLimiter().Capacity)
	assert.Equal(t, 50.0, GenerousRateLimiter().RefillRate)
	assert.Equal(t, &RateLimiterConfig{Capacity: 5, RefillRate: 2.0}, CustomRateLimiter(5, 2.0))
}
