package handlers

import (
	"net/http"
)

// reportWindow reads the from/to unix-second bounds. A missing bound is left
// open ended.
func reportWindow(r *http.Request) (int64, int64) {
	from := queryInt64(r, "from")
	to := queryInt64(r, "to")
	if to == 0 {
		to = int64(1)<<62 - 1
	}
	return from, to
}

func (h *Handler) ReportMonths(w http.ResponseWriter, r *http.Request) {
	from, to := reportWindow(r)
	buckets, err := h.reports.MonthSummary(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, buckets)
}

func (h *Handler) ReportTags(w http.ResponseWriter, r *http.Request) {
	from, to := reportWindow(r)
	summary, err := h.reports.TagsSummary(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) ReportCounterparties(w http.ResponseWriter, r *http.Request) {
	from, to := reportWindow(r)
	summary, err := h.reports.CounterpartiesSummary(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) ReportCategories(w http.ResponseWriter, r *http.Request) {
	from, to := reportWindow(r)
	slices, err := h.reports.CategoryBreakdown(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to build report")
		return
	}
	respondJSON(w, http.StatusOK, slices)
}
