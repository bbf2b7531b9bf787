package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"propsales/internal/services"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: code, Message: message})
}

// respondServiceError maps domain errors onto the HTTP surface. Anything
// unclassified is a storage failure and stays opaque to the caller.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var transitionErr *services.TransitionError
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, services.ErrOverpayment):
		respondError(w, http.StatusBadRequest, "overpayment", err.Error())
	case errors.As(err, &transitionErr):
		respondError(w, http.StatusBadRequest, "invalid_transition", transitionErr.Error())
	case errors.Is(err, services.ErrUnitNotAvailable):
		respondError(w, http.StatusConflict, "unit_not_available", err.Error())
	case errors.Is(err, services.ErrPaymentNotPending):
		respondError(w, http.StatusConflict, "payment_not_pending", err.Error())
	case errors.Is(err, services.ErrSelectionLocked):
		respondError(w, http.StatusConflict, "selection_locked", err.Error())
	case errors.Is(err, services.ErrSelectionUnitMismatch):
		respondError(w, http.StatusBadRequest, "selection_unit_mismatch", err.Error())
	case errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		h.log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "storage_failure", "unexpected error")
	}
}

func decodeJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}
