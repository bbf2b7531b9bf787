package handlers

import (
	"context"
	"net/http"
	"strconv"

	"propsales/internal/cache"
	"propsales/internal/middleware"
	"propsales/internal/models"
	"propsales/internal/services"
	"propsales/internal/store"

	"github.com/go-chi/chi/v5"
)

type reserveRequest struct {
	UnitID           string  `json:"unit_id" validate:"required,uuid4"`
	SelectionID      *string `json:"selection_id" validate:"omitempty,uuid4"`
	MortgageRequired bool    `json:"mortgage_required"`
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	sale, err := h.reservations.Reserve(r.Context(), services.ReserveRequest{
		BuyerID:          buyerID,
		UnitID:           req.UnitID,
		SelectionID:      req.SelectionID,
		MortgageRequired: req.MortgageRequired,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.invalidateSaleCaches(sale)
	respondSuccess(w, http.StatusCreated, saleResponse(sale))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, ok := h.loadOwnedSale(w, r)
	if !ok {
		return
	}
	respondSuccess(w, http.StatusOK, saleResponse(sale))
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	key := cache.Key("sales", "buyer", buyerID)
	if cached, found := h.caches.Sales.Get(key); found {
		respondSuccess(w, http.StatusOK, cached)
		return
	}
	sales, err := h.sales.ListByBuyer(r.Context(), buyerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	payload := saleResponses(sales)
	h.caches.Sales.Set(key, payload, 0)
	respondSuccess(w, http.StatusOK, payload)
}

func (h *Handler) ListSalePayments(w http.ResponseWriter, r *http.Request) {
	sale, ok := h.loadOwnedSale(w, r)
	if !ok {
		return
	}
	payments, err := h.payments.ListBySale(r.Context(), sale.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, paymentResponses(payments))
}

func (h *Handler) SendContracts(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.reservations.SendContracts)
}

func (h *Handler) SignContracts(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.reservations.SignContracts)
}

func (h *Handler) ExchangeContracts(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.reservations.ExchangeContracts)
}

func (h *Handler) CompleteSale(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.reservations.Complete)
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,min=2,max=255"`
}

func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	sale, err := h.reservations.Cancel(r.Context(), actorID, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.invalidateSaleCaches(sale)
	respondSuccess(w, http.StatusOK, saleResponse(sale))
}

type complianceRequest struct {
	MortgageApproved *bool `json:"mortgage_approved"`
	KYCCompleted     *bool `json:"kyc_completed"`
	AMLCompleted     *bool `json:"aml_completed"`
	FundsVerified    *bool `json:"funds_verified"`
}

func (h *Handler) UpdateCompliance(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.UserIDFromContext(r.Context())
	var req complianceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if req.MortgageApproved == nil && req.KYCCompleted == nil && req.AMLCompleted == nil && req.FundsVerified == nil {
		respondError(w, http.StatusBadRequest, "validation_error", "no compliance fields provided")
		return
	}
	sale, err := h.reservations.UpdateCompliance(r.Context(), actorID, chi.URLParam(r, "id"), store.ComplianceUpdate{
		MortgageApproved: req.MortgageApproved,
		KYCCompleted:     req.KYCCompleted,
		AMLCompleted:     req.AMLCompleted,
		FundsVerified:    req.FundsVerified,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.caches.Sales.InvalidatePattern(sale.ID)
	h.caches.Sales.Invalidate(cache.Key("sales", "buyer", sale.BuyerID))
	respondSuccess(w, http.StatusOK, saleResponse(sale))
}

func (h *Handler) ListSaleAudit(w http.ResponseWriter, r *http.Request) {
	saleID := chi.URLParam(r, "id")
	limit, offset := parsePage(r)
	entries, err := h.audit.ListByEntity(r.Context(), "sale", saleID, limit, offset)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, entries)
}

func (h *Handler) runTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID, saleID string) (models.Sale, error)) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	sale, err := fn(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.invalidateSaleCaches(sale)
	respondSuccess(w, http.StatusOK, saleResponse(sale))
}

// loadOwnedSale fetches the sale and enforces that the caller is the buyer
// or a developer.
func (h *Handler) loadOwnedSale(w http.ResponseWriter, r *http.Request) (models.Sale, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return models.Sale{}, false
	}
	sale, err := h.sales.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return models.Sale{}, false
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if sale.BuyerID != userID && role != "developer" {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return models.Sale{}, false
	}
	return sale, true
}

func (h *Handler) invalidateSaleCaches(sale models.Sale) {
	h.caches.Sales.Invalidate(cache.Key("sales", "buyer", sale.BuyerID))
	h.invalidateUnitCaches(sale.UnitID, sale.DevelopmentID)
}

func parsePage(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
