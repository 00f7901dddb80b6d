package http

import (
	"database/sql"
	"net/http"
	"time"
)

// Version is the reported application version, overridable via ldflags.
var Version = "2.0.0"

// HealthHandler answers liveness probes with a backing-store connectivity
// check.
type HealthHandler struct {
	DB *sql.DB
}

// Check handles GET /health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	var now time.Time
	err := h.DB.QueryRowContext(r.Context(), `SELECT NOW()`).Scan(&now)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "error",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"database":  "connected",
		"timestamp": now,
		"version":   Version,
	})
}
