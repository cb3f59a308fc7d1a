package main

import (
	"go-elms/internal/app"
	"go-elms/internal/bootstrap"
	"go-elms/internal/shared/apperror"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	a, err := app.BuildApp(logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	server := bootstrap.NewServer(a.Engine, a.Config.Port, logger)
	if err := server.Run(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
