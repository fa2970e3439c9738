package app

import (
	"database/sql"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/config"
	"go-leaveflow/internal/employee"
	"go-leaveflow/internal/leave"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/permission"
	"go-leaveflow/internal/policy"
	"go-leaveflow/internal/shared/clock"
	"go-leaveflow/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	cfg config.Config,
) error {
	clk := clock.System()

	// --- Repositories ---
	policyRepo := policy.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	balanceRepo := balance.NewRepository(gormDB, db)
	leaveRepo := leave.NewRepository(gormDB, db)
	permissionRepo := permission.NewRepository(gormDB, db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	balanceService := balance.NewService(balanceRepo, rdb, clk)
	leaveService := leave.NewService(db, leave.Deps{
		Repo:      leaveRepo,
		Balances:  balanceRepo,
		Policies:  policyRepo,
		Employees: employeeRepo,
		Counter:   counterRepo,
		Outbox:    outboxRepo,
		Redis:     rdb,
		Clock:     clk,
		RestDays:  cfg.RestDays,
	})
	permissionService := permission.NewService(db, permission.Deps{
		Repo:      permissionRepo,
		Policies:  policyRepo,
		Employees: employeeRepo,
		Counter:   counterRepo,
		Outbox:    outboxRepo,
		Clock:     clk,
	})

	// --- Handlers ---
	policyHandler := policy.NewHandler(policyRepo)
	balanceHandler := balance.NewHandler(balanceService)
	leaveHandler := leave.NewHandler(leaveService)
	permissionHandler := permission.NewHandler(permissionService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		policy.RegisterRoutes(api, policyHandler)
		balance.RegisterRoutes(api, balanceHandler)
		leave.RegisterRoutes(api, leaveHandler, rdb)
		permission.RegisterRoutes(api, permissionHandler, rdb)
	}

	return nil
}
