package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/cache"
	"github.com/inkwell/backend/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed rate limiter backed by the
// given Redis client. It works across multiple instances; when client is nil
// (Redis not configured) it falls back to the in-memory token buckets.
func RedisRateLimitMiddleware(client *cache.RedisClient, config RateLimitConfig) gin.HandlerFunc {
	if client == nil {
		return NewRateLimiter(config)
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := client.GetInt(ctx, key)
		if err != nil && !cache.IsNil(err) {
			// On Redis error, reject rather than allow. A broken limiter that
			// waves everything through leaves the credential endpoints open.
			logger.Log.Error("rate limit check failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			c.Abort()
			return
		}

		if val >= int64(config.Limit) {
			RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
			logger.Log.Warn("rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", val),
			)
			c.JSON(429, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": config.Window.Seconds(),
			})
			c.Abort()
			return
		}

		newVal, err := client.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("rate limit increment failed, rejecting request",
				logger.WithIP(clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			c.Abort()
			return
		}

		// Set expiration on the first request in this window
		if newVal == 1 {
			if err := client.Expire(ctx, key, config.Window); err != nil {
				logger.Log.Warn("failed to set rate limit expiration",
					logger.WithIP(clientIP),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}
