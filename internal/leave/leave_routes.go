package leave

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.Idempotency(rdb), handler.Submit)
		leaves.GET("/mine", handler.ListMine)
		leaves.GET("/pending", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.ListPending)
		leaves.GET("/:id", handler.GetByID)
		leaves.POST("/:id/approve", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.Approve)
		leaves.POST("/:id/reject", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.Reject)
	}
}
