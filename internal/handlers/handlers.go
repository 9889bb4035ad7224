package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pocketledger/internal/fixedpoint"
	"pocketledger/internal/services"

	"github.com/go-chi/chi/v5"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case services.ValidationError:
		respondError(w, http.StatusBadRequest, err.Error())
	case services.NotFoundError:
		respondError(w, http.StatusNotFound, err.Error())
	case services.DuplicateNameError, services.EntityInUseError:
		respondError(w, http.StatusConflict, err.Error())
	case services.ProtectedEntityError:
		respondError(w, http.StatusForbidden, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func pathString(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func queryInt64(r *http.Request, name string) int64 {
	value, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func parseAmount(raw string) (fixedpoint.FixedPoint, error) {
	return fixedpoint.FromDecimalString(raw)
}
