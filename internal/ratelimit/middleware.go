package ratelimit

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GinMiddleware limits requests per client IP per route. A nil bucket means
// rate limiting is disabled and all requests pass.
func GinMiddleware(bucket *TokenBucket, log *zap.Logger, rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bucket == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), c.ClientIP())
		result, err := bucket.Allow(c.Request.Context(), key, rate, burst)
		if err != nil {
			// Redis trouble should not take the API down.
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !result.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests, slow down",
				},
			})
			return
		}
		c.Next()
	}
}
