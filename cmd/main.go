package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stash-backend/cmd/config"
	migration "stash-backend/cmd/database/migrate"
	"stash-backend/internal/utils"
	"stash-backend/internal/utils/logger"

	"go.uber.org/zap"
)

func main() {
	utils.LoadConfig()

	log := logger.New(utils.GetConfig("APP_ENV"), utils.GetConfig("APP_NAME"), utils.GetConfig("LOG_LEVEL"))
	defer func() { _ = log.Sync() }()

	db, err := config.ConnectDB()
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	if err := migration.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	app, err := config.NewApp(db)
	if err != nil {
		log.Fatal("failed to build app", zap.Error(err))
	}

	host := utils.GetConfig("HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := utils.GetConfig("PORT")
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
