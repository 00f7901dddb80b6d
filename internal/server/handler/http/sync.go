// Package http provides HTTP handlers for snapshot synchronization.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"fieldpulse/internal/models"
)

// SyncService defines the sync operations required by the SyncHandler.
type SyncService interface {
	// Pull assembles the full server-side snapshot.
	Pull(ctx context.Context) (*models.Snapshot, error)
	// Push upserts every record of the client snapshot by id.
	Push(ctx context.Context, req *models.PushRequest) error
}

// SyncHandler handles GET and POST /sync.
type SyncHandler struct {
	SyncService SyncService
	Logger      *zap.Logger
}

// pullResponse is the GET /sync envelope.
type pullResponse struct {
	Success bool             `json:"success"`
	Data    *models.Snapshot `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
}

// pushResponse is the POST /sync and POST /migrate envelope.
type pushResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Pull handles GET /sync: the full remote snapshot, or a 500 envelope if
// any table read fails.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	snap, err := h.SyncService.Pull(r.Context())
	if err != nil {
		h.Logger.Error("pull failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, pullResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pullResponse{Success: true, Data: snap})
}

// Push handles POST /sync: upserts the posted snapshot. A malformed body is
// a client error; a storage failure is a server error. Either way nothing is
// reported per-table to the client, only logged.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, pushResponse{Success: false, Message: "invalid body"})
		return
	}

	if err := h.SyncService.Push(r.Context(), &req); err != nil {
		h.Logger.Error("push failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, pushResponse{Success: false, Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pushResponse{Success: true, Message: "Sync complete"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
