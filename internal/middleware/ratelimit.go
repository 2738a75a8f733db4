package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ferminotify/core/internal/pkg/redis"
	"github.com/ferminotify/core/internal/pkg/response"
)

const msgTooManyRequests = "Troppe richieste, riprova tra poco."

// RateLimit allows at most max requests per client IP in each fixed window.
// A nil client disables the limit; Redis failures let the request through.
func RateLimit(rc *redis.Client, max int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if rc == nil || max <= 0 || window <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("fn:rate_limit:%s:%d", ip, bucket)

		count, err := rc.Hit(ctx, key, window+time.Second)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > int64(max) {
			retry := window - time.Duration(time.Now().UnixNano()%int64(window))
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			response.TooManyRequests(c, msgTooManyRequests)
			return
		}

		c.Next()
	}
}
