package handlers

import (
	"encoding/json"
	"net/http"

	"propsales/internal/cache"
	"propsales/internal/middleware"
	"propsales/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createUnitRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=120"`
	UnitType  *string `json:"unit_type" validate:"omitempty,max=60"`
	BasePrice string  `json:"base_price" validate:"required"`
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	developmentID := chi.URLParam(r, "id")
	var req createUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	basePrice, err := parseAmountMinor(req.BasePrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "invalid base price")
		return
	}
	if _, err := h.developments.GetByID(r.Context(), developmentID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	unit := models.Unit{
		ID:            uuid.NewString(),
		DevelopmentID: developmentID,
		Name:          req.Name,
		UnitType:      req.UnitType,
		BasePrice:     basePrice,
		Status:        models.UnitAvailable,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.units.Create(r.Context(), tx, unit); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"name":       unit.Name,
			"base_price": unit.BasePrice,
		})
		return h.audit.Log(r.Context(), tx, userID, "unit.create", "unit", unit.ID, string(data))
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.caches.Units.InvalidatePattern(cache.Key("units", developmentID))
	respondSuccess(w, http.StatusCreated, unitResponse(unit))
}

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	developmentID := chi.URLParam(r, "id")
	key := cache.Key("units", developmentID)
	if cached, ok := h.caches.Units.Get(key); ok {
		respondSuccess(w, http.StatusOK, cached)
		return
	}
	units, err := h.units.ListByDevelopment(r.Context(), developmentID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	payload := unitResponses(units)
	h.caches.Units.Set(key, payload, 0)
	respondSuccess(w, http.StatusOK, payload)
}

func (h *Handler) GetUnit(w http.ResponseWriter, r *http.Request) {
	unitID := chi.URLParam(r, "id")
	key := cache.Key("unit", unitID)
	if cached, ok := h.caches.Units.Get(key); ok {
		respondSuccess(w, http.StatusOK, cached)
		return
	}
	unit, err := h.units.GetByID(r.Context(), unitID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	payload := unitResponse(unit)
	h.caches.Units.Set(key, payload, 0)
	respondSuccess(w, http.StatusOK, payload)
}

// invalidateUnitCaches drops every cached view of a unit after its status
// changed as part of a sale transition.
func (h *Handler) invalidateUnitCaches(unitID, developmentID string) {
	h.caches.Units.Invalidate(cache.Key("unit", unitID))
	h.caches.Units.InvalidatePattern(cache.Key("units", developmentID))
}
