package policy

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	types := r.Group("")
	types.Use(middleware.AuthMiddleware())
	{
		types.GET("/leave-types", handler.ListLeaveTypes)
		types.GET("/permission-types", handler.ListPermissionTypes)
	}
}
