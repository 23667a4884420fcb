package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/quilldesk/quilldesk-backend/internal/http/response"
	"github.com/quilldesk/quilldesk-backend/internal/platform/ctxutil"
	"github.com/quilldesk/quilldesk-backend/internal/platform/envutil"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type RateLimiter struct {
	log    *logger.Logger
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewRateLimiter builds a fixed-window per-user limiter for the
// streaming endpoints. A nil redis client disables limiting.
func NewRateLimiter(log *logger.Logger, rdb *redis.Client) *RateLimiter {
	return &RateLimiter{
		log:    log.With("middleware", "RateLimiter"),
		rdb:    rdb,
		limit:  int64(envutil.Int("COACH_RATE_LIMIT", 10)),
		window: envutil.Duration("COACH_RATE_WINDOW", time.Minute),
	}
}

func (rl *RateLimiter) LimitStreams() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rdb == nil {
			c.Next()
			return
		}
		userID := ctxutil.UserID(c.Request.Context())
		if userID == uuid.Nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:coach:%s", userID)
		ctx := c.Request.Context()
		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			// Fail open: a Redis outage must not take coaching down.
			rl.log.Warn("rate limit check failed", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			_ = rl.rdb.Expire(ctx, key, rl.window).Err()
		}
		if count > rl.limit {
			response.AbortError(c, http.StatusTooManyRequests, "rate_limited", errors.New("too many coaching requests, slow down"))
			return
		}
		c.Next()
	}
}
