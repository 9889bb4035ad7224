package handlers

import (
	"encoding/json"
	"net/http"

	"pocketledger/internal/services"
)

type budgetRequest struct {
	TagID          int64   `json:"tag_id"`
	Amount         string  `json:"amount"`
	StartAt        int64   `json:"start_at"`
	EndAt          int64   `json:"end_at"`
	IncludedTagIDs []int64 `json:"included_tag_ids"`
}

func (b budgetRequest) toRequest() (services.BudgetRequest, error) {
	amount, err := parseAmount(b.Amount)
	if err != nil {
		return services.BudgetRequest{}, err
	}
	return services.BudgetRequest{
		TagID:          b.TagID,
		Amount:         amount,
		StartAt:        b.StartAt,
		EndAt:          b.EndAt,
		IncludedTagIDs: b.IncludedTagIDs,
	}, nil
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var raw budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req, err := raw.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	budgetID, err := h.budgetSvc.CreateBudget(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": budgetID})
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid budget id")
		return
	}
	var raw budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req, err := raw.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if err := h.budgetSvc.UpdateBudget(r.Context(), budgetID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	budgetID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid budget id")
		return
	}
	if err := h.budgetSvc.DeleteBudget(r.Context(), budgetID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) BudgetsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.budgetSvc.BudgetsSummary(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
