package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"pocketledger/internal/services"
)

type transactionRequest struct {
	Timestamp      int64         `json:"timestamp"`
	CounterpartyID *int64        `json:"counterparty_id"`
	Note           string        `json:"note"`
	Lines          []lineRequest `json:"lines"`
}

func (t transactionRequest) toRequest() (services.TransactionRequest, error) {
	req := services.TransactionRequest{
		Timestamp:      t.Timestamp,
		CounterpartyID: t.CounterpartyID,
		Note:           t.Note,
	}
	for _, line := range t.Lines {
		input, err := line.toInput()
		if err != nil {
			return req, err
		}
		req.Lines = append(req.Lines, input)
	}
	return req, nil
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var raw transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req, err := raw.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	trxID, err := h.ledger.CreateTransaction(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"trx_id": trxID})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	trxID := pathString(r, "id")
	trx, err := h.transactions.GetTrx(r.Context(), h.db, trxID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load transaction")
		return
	}
	lines, err := h.transactions.ListLinesByTrx(r.Context(), h.db, trxID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transaction")
		return
	}
	lineRows := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		row := map[string]any{
			"line_id":    line.ID,
			"account_id": line.AccountID,
			"tag_id":     line.TagID,
			"sign":       line.Sign,
			"amount":     line.Amount().Decimal().String(),
			"rate":       line.Rate().Decimal().String(),
		}
		if line.PctValue != nil {
			row["pct_value"] = *line.PctValue
		}
		lineRows = append(lineRows, row)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"trx_id":          trx.ID,
		"timestamp":       trx.Timestamp,
		"counterparty_id": trx.CounterpartyID,
		"note":            trx.Note,
		"lines":           lineRows,
	})
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	trxID := pathString(r, "id")
	var raw transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req, err := raw.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if err := h.ledger.UpdateTransaction(r.Context(), trxID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	trxID := pathString(r, "id")
	if err := h.ledger.DeleteTransaction(r.Context(), trxID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
