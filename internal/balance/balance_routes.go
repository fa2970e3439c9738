package balance

import (
	"go-leaveflow/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.POST("", middleware.RoleMiddleware("HR_ADMIN"), handler.Allocate)
		balances.GET("/me", handler.GetSummary)
		balances.GET("/:employeeId", middleware.RoleMiddleware("HR_ADMIN", "MANAGER"), handler.GetSummary)
	}
}
