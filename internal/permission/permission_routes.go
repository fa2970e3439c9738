package permission

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	permissions := r.Group("/permissions")
	permissions.Use(middleware.AuthMiddleware())
	{
		permissions.POST("", middleware.Idempotency(rdb), handler.Submit)
		permissions.GET("/mine", handler.ListMine)
		permissions.GET("/pending", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.ListPending)
		permissions.GET("/:id", handler.GetByID)
		permissions.POST("/:id/approve", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.Approve)
		permissions.POST("/:id/reject", middleware.RoleMiddleware("MANAGER", "HR_ADMIN"), handler.Reject)
	}
}
