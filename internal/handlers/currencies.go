package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"pocketledger/internal/services"
)

type currencyRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	DecimalPlaces int    `json:"decimal_places"`
	IsDefault     bool   `json:"is_default"`
	IsFiat        bool   `json:"is_fiat"`
	IsCrypto      bool   `json:"is_crypto"`
}

func (c currencyRequest) toRequest() services.CurrencyRequest {
	return services.CurrencyRequest{
		Code:          c.Code,
		Name:          c.Name,
		Symbol:        c.Symbol,
		DecimalPlaces: c.DecimalPlaces,
		IsDefault:     c.IsDefault,
		IsFiat:        c.IsFiat,
		IsCrypto:      c.IsCrypto,
	}
}

func (h *Handler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencies.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load currencies")
		return
	}
	respondJSON(w, http.StatusOK, currencies)
}

func (h *Handler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	currencyID, err := h.currencySvc.CreateCurrency(r.Context(), req.toRequest())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"id": currencyID})
}

func (h *Handler) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	var req currencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.currencySvc.UpdateCurrency(r.Context(), currencyID, req.toRequest()); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteCurrency(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	if err := h.currencySvc.DeleteCurrency(r.Context(), currencyID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SetDefaultCurrency(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	if err := h.currencySvc.SetDefaultCurrency(r.Context(), currencyID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type recordRateRequest struct {
	Rate       string `json:"rate"`
	ObservedAt int64  `json:"observed_at"`
}

func (h *Handler) RecordRate(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	var req recordRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rate, err := parseAmount(req.Rate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rate")
		return
	}
	observedAt := time.Now().UTC()
	if req.ObservedAt > 0 {
		observedAt = time.Unix(req.ObservedAt, 0).UTC()
	}
	if err := h.currencySvc.RecordRate(r.Context(), currencyID, rate, observedAt); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	limit := int(queryInt64(r, "limit"))
	if limit <= 0 {
		limit = 50
	}
	history, err := h.rates.History(r.Context(), currencyID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load rates")
		return
	}
	rows := make([]map[string]any, 0, len(history))
	for _, entry := range history {
		rows = append(rows, map[string]any{
			"rate":       entry.Rate().Decimal().String(),
			"updated_at": entry.UpdatedAt,
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

func (h *Handler) CurrentRate(w http.ResponseWriter, r *http.Request) {
	currencyID, err := pathID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid currency id")
		return
	}
	rate, err := h.currencySvc.CurrentRate(r.Context(), currencyID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"rate": rate.Decimal().String()})
}
