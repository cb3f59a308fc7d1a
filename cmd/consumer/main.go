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

	if err := app.RunConsumer(app.LoadConfig(), logger); err != nil {
		logger.Fatal("consumer exited", zap.Error(err))
	}
}
