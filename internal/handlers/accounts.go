package handlers

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	respondJSON(w, http.StatusOK, accountRows(accounts))
}

type adjustBalanceRequest struct {
	Target string `json:"target"`
}

func (h *Handler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	var req adjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	target, err := parseAmount(req.Target)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid target balance")
		return
	}
	trxID, err := h.ledger.AdjustBalance(r.Context(), accountID, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"trx_id": trxID})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.ledger.DeleteAccount(r.Context(), accountID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SelfCheck recomputes every account balance from its lines and reports any
// drift against the stored value.
func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.ListAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	ids := make([]int64, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	rows, err := h.ledger.Reconcile(r.Context(), h.db, ids)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reconcile failed")
		return
	}
	results := make([]map[string]any, 0, len(rows))
	healthy := true
	for _, row := range rows {
		if !row.InBalance() {
			healthy = false
		}
		results = append(results, map[string]any{
			"account_id": row.AccountID,
			"currency":   row.Currency,
			"stored":     row.Stored.Decimal().String(),
			"recomputed": row.Recomputed.Decimal().String(),
			"in_balance": row.InBalance(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"healthy": healthy, "accounts": results})
}
