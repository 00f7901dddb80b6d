package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Migrator runs the idempotent schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// MigratorFunc adapts a plain function to the Migrator interface.
type MigratorFunc func(ctx context.Context) error

// Migrate calls f.
func (f MigratorFunc) Migrate(ctx context.Context) error { return f(ctx) }

// MigrateHandler handles /migrate. Clients invoke it defensively before the
// first pull; repeated calls are no-ops.
type MigrateHandler struct {
	Migrator Migrator
	Logger   *zap.Logger
}

// Run handles POST /migrate.
func (h *MigrateHandler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.Migrator.Migrate(r.Context()); err != nil {
		h.Logger.Error("migration failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, pushResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{Success: true, Message: "Migrations complete"})
}

// Info handles GET /migrate.
func (h *MigrateHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"info": "POST to run migrations"})
}
