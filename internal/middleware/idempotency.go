package middleware

import (
	"net/http"
	"time"

	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyKeyPrefix = "idempotency:"
	idempotencyTTL       = 24 * time.Hour
)

// Idempotency rejects replays of a mutation carrying a previously seen
// Idempotency-Key. The key is claimed with SetNX before the handler runs; a
// handler failure releases it so the client can retry.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || rdb == nil {
			c.Next()
			return
		}

		redisKey := idempotencyKeyPrefix + key

		claimed, err := rdb.SetNX(c.Request.Context(), redisKey, 1, idempotencyTTL).Result()
		if err != nil {
			// Redis being down must not block writes.
			zap.L().Warn("idempotency check unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			response.Error(c, http.StatusConflict, "DUPLICATE_REQUEST", "Request was already processed", nil)
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := rdb.Del(c.Request.Context(), redisKey).Err(); err != nil {
				zap.L().Warn("idempotency key release failed", zap.Error(err))
			}
		}
	}
}
