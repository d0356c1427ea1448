package middleware

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"config_client/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

var tokenBucket = redis.NewScript(luaScript)

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// DefaultRateLimiterConfig returns default rate limiter settings
// 10 requests per second with burst capacity of 20
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   20,
		RefillRate: 10.0,
	}
}

// RateLimiterMiddleware implements a token bucket per client IP using Redis + Lua.
// Requests are allowed through when Redis is unavailable.
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientRateLimiterKey(c.ClientIP())
		now := float64(time.Now().UnixMilli()) / 1000

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		allowed, err := tokenBucket.Run(ctx, redisClient, []string{key},
			config.Capacity,
			config.RefillRate,
			now,
		).Int64()
		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			// Fail open: allow request if Redis fails
			c.Next()
			return
		}

		if allowed == 0 {
			response.TooManyRequests(c, "Rate limit exceeded", rateLimitDetails(config))
			return
		}

		c.Next()
	}
}

func rateLimitDetails(config *RateLimiterConfig) gin.H {
	return gin.H{
		"message":     fmt.Sprintf("Maximum %g requests per second allowed", config.RefillRate),
		"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
	}
}

// ClientRateLimiterKey builds the bucket key for a client address
func ClientRateLimiterKey(clientIP string) string {
	return fmt.Sprintf("rate_limiter:client:%s", clientIP)
}
