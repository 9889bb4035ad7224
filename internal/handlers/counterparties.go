package handlers

import (
	"encoding/json"
	"net/http"

	"pocketledger/internal/services"
)

type counterpartyRequest struct {
	Name   string  `json:"name"`
	Note   string  `json:"note"`
	TagIDs []int64 `json:"tag_ids"`
}

func (c counterpartyRequest) toRequest() services.CounterpartyRequest {
	return services.CounterpartyRequest{Name: c.Name, Note: c.Note, TagIDs: c.TagIDs}
}

func (h *Handler) ListCounterparties(w http.ResponseWriter, r *http.Request) {
	counterparties, err := h.counterparties.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load counterparties")
		return
	}
	rows := make([]map[string]any, 0, len(counterparties))
	for _, cpty := range counterparties {
		tagIDs, err := h.counterparties.ListTags(r.Context(), h.db, cpty.ID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "unable to load counterparties")
			return
		}
		rows = append(rows, map[string]any{
			"id":      cpty.ID,
			"name":    cpty.Name,
			"note":    cpty.Note,
			"tag_ids": tagIDs,
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) CreateCounterparty(w http.ResponseWriter, r *http.Request) {
	var req counterpartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	counterpartyID, err := h.cptySvc.CreateCounterparty(r.Context(), req.toRequest())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": counterpartyID})
}

func (h *Handler) UpdateCounterparty(w http.ResponseWriter, r *http.Request) {
	counterpartyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid counterparty id")
		return
	}
	var req counterpartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.cptySvc.UpdateCounterparty(r.Context(), counterpartyID, req.toRequest()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteCounterparty(w http.ResponseWriter, r *http.Request) {
	counterpartyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid counterparty id")
		return
	}
	if err := h.cptySvc.DeleteCounterparty(r.Context(), counterpartyID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
