package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"fieldpulse/internal/middleware"
)

// NewRouter constructs the sync API handler.
//
// Routes:
//
//	GET  /sync    → syncHandler.Pull
//	POST /sync    → syncHandler.Push
//	GET  /migrate → migrateHandler.Info
//	POST /migrate → migrateHandler.Run
//	GET  /health  → healthHandler.Check
//
// Bodies must be application/json; every request is logged through zap.
func NewRouter(
	syncHandler *SyncHandler,
	migrateHandler *MigrateHandler,
	healthHandler *HealthHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/sync", syncHandler.Pull)
	r.Post("/sync", syncHandler.Push)
	r.Get("/migrate", migrateHandler.Info)
	r.Post("/migrate", migrateHandler.Run)
	r.Get("/health", healthHandler.Check)

	return r
}
