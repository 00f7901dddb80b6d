// Package main starts the FieldPulse sync server: configuration, logging,
// PostgreSQL, migrations, and the HTTP API.
package main

import (
	"cmp"
	"context"
	"fmt"

	nethttp "net/http"

	"go.uber.org/zap"

	"fieldpulse/internal/config"
	"fieldpulse/internal/db"
	"fieldpulse/internal/logger"
	"fieldpulse/internal/repository"
	"fieldpulse/internal/server/handler/http"
	"fieldpulse/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		panic(err)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Ensure the schema exists up front; clients also trigger this through
	// POST /migrate before their first pull.
	if err := db.RunMigrations(context.Background(), postgresDB); err != nil {
		zapLogger.Warn("startup migration failed", zap.Error(err))
	}

	syncRepo := repository.NewPostgresSyncRepository(postgresDB)
	syncService := service.NewSyncService(syncRepo)

	syncHandler := &http.SyncHandler{SyncService: syncService, Logger: zapLogger}
	migrateHandler := &http.MigrateHandler{
		Migrator: http.MigratorFunc(func(ctx context.Context) error {
			return db.RunMigrations(ctx, postgresDB)
		}),
		Logger: zapLogger,
	}
	healthHandler := &http.HealthHandler{DB: postgresDB}

	router := http.NewRouter(syncHandler, migrateHandler, healthHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
