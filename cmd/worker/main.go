package main

import (
	"go-elms/internal/app"

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

	a, err := app.BuildApp(logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	if err := app.RunWorker(a); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}
