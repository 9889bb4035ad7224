package handlers

import (
	"encoding/json"
	"net/http"

	"pocketledger/internal/services"
	"pocketledger/internal/store"
)

type walletRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.wallets.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallets")
		return
	}
	respondJSON(w, http.StatusOK, wallets)
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	walletID, err := h.walletSvc.CreateWallet(r.Context(), services.WalletRequest{Name: req.Name, Color: req.Color})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": walletID})
}

func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.walletSvc.UpdateWallet(r.Context(), walletID, services.WalletRequest{Name: req.Name, Color: req.Color}); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	if err := h.walletSvc.DeleteWallet(r.Context(), walletID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SetDefaultWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	if err := h.walletSvc.SetDefaultWallet(r.Context(), walletID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) ListWalletAccounts(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	accounts, err := h.accounts.ListByWallet(r.Context(), walletID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load accounts")
		return
	}
	respondJSON(w, http.StatusOK, accountRows(accounts))
}

type createAccountRequest struct {
	CurrencyID int64 `json:"currency_id"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	accountID, err := h.walletSvc.CreateAccount(r.Context(), walletID, req.CurrencyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": accountID})
}

func (h *Handler) SetDefaultAccount(w http.ResponseWriter, r *http.Request) {
	walletID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid wallet id")
		return
	}
	accountID, err := pathID(r, "accountID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.walletSvc.SetDefaultAccount(r.Context(), walletID, accountID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// accountRows renders balances in the account currency's display precision.
func accountRows(accounts []store.AccountDetail) []map[string]any {
	rows := make([]map[string]any, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, map[string]any{
			"id":         account.ID,
			"wallet_id":  account.WalletID,
			"wallet":     account.WalletName,
			"currency":   account.CurrencyCode,
			"balance":    account.Balance().DisplayString(account.DecimalPlaces),
			"is_default": account.IsDefault,
		})
	}
	return rows
}
