package middleware

import (
	"fmt"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows limit requests per client IP per minute under the given
// scope. Without a redis client the counters live in process memory.
func RateLimit(client *redis.Client, scope string, limit uint) gin.HandlerFunc {
	var store ratelimit.Store
	if client != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: client,
			Rate:        time.Minute,
			Limit:       limit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: limit,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc: func(c *gin.Context) string {
			return scope + ":" + c.ClientIP()
		},
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
				"scope": scope,
				"ip":    c.ClientIP(),
			})
			apperrors.TooManyRequests(c, fmt.Sprintf("Too many requests. Try again in %s", time.Until(info.ResetTime).Round(time.Second)))
			c.Abort()
		},
	})
}
