package main

import (
	"context"
	"log"

	"distributor/internal/config"
	"distributor/internal/database"
	"distributor/internal/logger"
	"distributor/internal/migrations"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to init logger:", err)
	}
	defer zapLogger.Sync()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Force recreate all tables and seed the catalog
	if err := migrations.RunMigrations(context.Background(), db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}

	zapLogger.Info("Database initialization completed successfully")
}
