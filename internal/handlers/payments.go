package handlers

import (
	"net/http"
	"strings"

	"propsales/internal/auth"
	"propsales/internal/middleware"
	"propsales/internal/websocket"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	payment, err := h.payments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	sale, err := h.sales.GetByID(r.Context(), payment.SaleID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if sale.BuyerID != userID && role != "developer" {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}
	respondSuccess(w, http.StatusOK, paymentResponse(payment))
}

type settleRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (h *Handler) SettlePayment(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req settleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "invalid amount")
		return
	}
	payment, err := h.settlements.SettlePayment(r.Context(), actorID, chi.URLParam(r, "id"), amount)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if sale, err := h.sales.GetByID(r.Context(), payment.SaleID); err == nil {
		h.invalidateSaleCaches(sale)
	}
	respondSuccess(w, http.StatusOK, paymentResponse(payment))
}

type failRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=255"`
}

func (h *Handler) FailPayment(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req failRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	paymentID := chi.URLParam(r, "id")
	if err := h.settlements.FailPayment(r.Context(), actorID, paymentID, req.Reason); err != nil {
		h.respondServiceError(w, err)
		return
	}
	payment, err := h.payments.GetByID(r.Context(), paymentID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, paymentResponse(payment))
}

func (h *Handler) WSSales(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
