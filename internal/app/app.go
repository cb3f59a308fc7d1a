package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"go-elms/internal/auth"
	"go-elms/internal/employee"
	"go-elms/internal/leave"
	"go-elms/internal/leavetype"
	"go-elms/internal/messaging/kafka"
	"go-elms/internal/middleware"
	"go-elms/internal/shared/connection"
	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// App owns the shared infrastructure handles. The API, worker and consumer
// binaries all build one and pick the parts they need.
type App struct {
	Config Config
	Engine *gin.Engine
	GormDB *gorm.DB
	SqlDB  *sql.DB
	Redis  *redis.Client
	Logger *zap.Logger
}

func BuildApp(logger *zap.Logger) (*App, error) {
	cfg := LoadConfig()

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		cfg.ConnectRetries,
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if err := migrate(gormDB); err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, cfg.ConnectRetries)
	if err != nil {
		// The API degrades without redis: no balance cache, no idempotency keys.
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.ContextLogger(logger))
	engine.Use(middleware.RateLimit(rate.Limit(50), 100))

	engine.GET("/api/health", healthHandler(sqlDB))

	a := &App{
		Config: cfg,
		Engine: engine,
		GormDB: gormDB,
		SqlDB:  sqlDB,
		Redis:  rdb,
		Logger: logger,
	}

	if err := registerModules(a); err != nil {
		return nil, err
	}

	return a, nil
}

// migrate applies the gorm schema plus the raw outbox table, then seeds the
// leave type reference data.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&employee.Employee{},
		&auth.User{},
		&leavetype.LeaveType{},
		&leave.LeaveRequest{},
	); err != nil {
		return err
	}

	if err := db.Exec(kafka.Schema).Error; err != nil {
		return err
	}

	return leavetype.NewRepository(db).Seed(context.Background(), leavetype.DefaultNames)
}

func healthHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var now time.Time
		if err := db.QueryRowContext(c.Request.Context(), "SELECT NOW()").Scan(&now); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable", nil)
			return
		}

		response.Success(c, http.StatusOK, gin.H{
			"status": "ok",
			"time":   now.UTC().Format(time.RFC3339),
		}, nil)
	}
}
