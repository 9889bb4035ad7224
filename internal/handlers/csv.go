package handlers

import (
	"context"
	"errors"
	"net/http"

	"pocketledger/internal/store"

	log "github.com/sirupsen/logrus"
)

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	filter := store.ExportFilter{
		From:           queryInt64(r, "from"),
		To:             queryInt64(r, "to"),
		WalletID:       queryInt64(r, "wallet_id"),
		AccountID:      queryInt64(r, "account_id"),
		TagID:          queryInt64(r, "tag_id"),
		CounterpartyID: queryInt64(r, "counterparty_id"),
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	if err := h.csv.Export(r.Context(), w, filter); err != nil {
		// Headers are already on the wire; all we can do is log.
		log.WithError(err).Error("csv export failed")
	}
}

func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	result, err := h.csv.Import(r.Context(), r.Body)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			respondError(w, http.StatusBadRequest, "import cancelled")
			return
		}
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
