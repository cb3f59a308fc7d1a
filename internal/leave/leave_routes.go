package leave

import (
	"go-elms/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.Idempotency(rdb), handler.Apply)
		leaves.POST("/:id/approve", handler.Approve)
		leaves.POST("/:id/reject", handler.Reject)
		leaves.POST("/:id/cancel", handler.Cancel)

		leaves.GET("/my", handler.ListOwn)
		leaves.GET("/pending", handler.ListPending)
		leaves.GET("/balance", handler.Balance)
	}
}
