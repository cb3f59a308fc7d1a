package app

import (
	"go-elms/internal/auth"
	"go-elms/internal/authz"
	"go-elms/internal/employee"
	"go-elms/internal/leave"
	"go-elms/internal/leavetype"
	"go-elms/internal/messaging/kafka"
)

// registerModules wires every feature and mounts its routes under /api/v1.
func registerModules(a *App) error {
	gate, err := authz.NewGate()
	if err != nil {
		return err
	}

	api := a.Engine.Group("/api/v1")

	authRepo := auth.NewRepository(a.GormDB)
	authService := auth.NewService(authRepo, a.Logger)
	auth.RegisterRoutes(api, auth.NewHandler(authService))

	typeRepo := leavetype.NewRepository(a.GormDB)
	typeService := leavetype.NewService(typeRepo, a.Logger)
	leavetype.RegisterRoutes(api, leavetype.NewHandler(typeService))

	employeeRepo := employee.NewRepository(a.SqlDB)
	employeeService := employee.NewService(employeeRepo, gate, a.Redis, a.Logger)

	outboxRepo := kafka.NewOutboxRepository(a.SqlDB)
	leaveRepo := leave.NewRepository(a.SqlDB)
	leaveService := leave.NewServiceWithOutbox(
		a.SqlDB, leaveRepo, employeeRepo, typeRepo, gate,
		outboxRepo, a.Redis, a.Logger,
	)
	leave.RegisterRoutes(api, leave.NewHandler(leaveService, employeeService), a.Redis)

	return nil
}
