package middleware

import (
	"go-elms/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger derives a request-scoped logger carrying the correlation id so
// services can log without re-plumbing it.
func ContextLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := base
		if rid := contextutil.GetRequestID(c.Request.Context()); rid != "" {
			logger = base.With(zap.String("request_id", rid))
		}

		ctx := contextutil.WithLogger(c.Request.Context(), logger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
