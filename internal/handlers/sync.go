package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"pocketledger/internal/websocket"
)

// ListDeletions serves the tombstone feed for incremental sync clients.
func (h *Handler) ListDeletions(w http.ResponseWriter, r *http.Request) {
	since := time.Unix(queryInt64(r, "since"), 0).UTC()
	deletions, err := h.sync.ListDeletionsSince(r.Context(), since)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load deletions")
		return
	}
	rows := make([]map[string]any, 0, len(deletions))
	for _, deletion := range deletions {
		rows = append(rows, map[string]any{
			"table_name": deletion.TableName,
			"entity_id":  deletion.EntityID,
			"deleted_at": deletion.DeletedAt.Unix(),
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) ListSyncStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.sync.ListStates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load sync state")
		return
	}
	respondJSON(w, http.StatusOK, states)
}

type syncStateRequest struct {
	InstallationID string `json:"installation_id"`
	LastSyncAt     int64  `json:"last_sync_at"`
	LastPushAt     int64  `json:"last_push_at"`
}

func (h *Handler) UpsertSyncState(w http.ResponseWriter, r *http.Request) {
	var req syncStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.InstallationID == "" {
		respondError(w, http.StatusBadRequest, "installation_id is required")
		return
	}
	lastSync := time.Unix(req.LastSyncAt, 0).UTC()
	lastPush := time.Unix(req.LastPushAt, 0).UTC()
	if err := h.sync.UpsertState(r.Context(), h.db, req.InstallationID, lastSync, lastPush); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to save sync state")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub)
}
