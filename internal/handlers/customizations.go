package handlers

import (
	"encoding/json"
	"net/http"

	"propsales/internal/middleware"
	"propsales/internal/models"
	"propsales/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type selectionOptionPayload struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
	Cost string `json:"cost" validate:"required"`
}

type selectionRequest struct {
	Options []selectionOptionPayload `json:"options" validate:"required,min=1,dive"`
}

func (h *Handler) parseSelectionOptions(req selectionRequest) ([]models.CustomizationOption, int64, error) {
	options := make([]models.CustomizationOption, 0, len(req.Options))
	for _, payload := range req.Options {
		cost, err := parseCostMinor(payload.Cost)
		if err != nil {
			return nil, 0, err
		}
		options = append(options, models.CustomizationOption{Name: payload.Name, Cost: cost})
	}
	return options, models.SumOptionCosts(options), nil
}

func (h *Handler) CreateSelection(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	unitID := chi.URLParam(r, "id")
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	options, totalCost, err := h.parseSelectionOptions(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "invalid option cost")
		return
	}
	if _, err := h.units.GetByID(r.Context(), unitID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	encoded, _ := json.Marshal(options)
	selection := models.CustomizationSelection{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		UnitID:    unitID,
		Options:   string(encoded),
		TotalCost: totalCost,
		Status:    models.SelectionDraft,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.selections.Create(r.Context(), tx, selection); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"unit_id":    unitID,
			"total_cost": totalCost,
		})
		return h.audit.Log(r.Context(), tx, buyerID, "customization.create", "customization", selection.ID, string(data))
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, selection)
}

// UpdateSelection replaces the option list of a DRAFT selection. Approved
// selections are immutable, their cost is already baked into a sale.
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	selectionID := chi.URLParam(r, "id")
	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	options, totalCost, err := h.parseSelectionOptions(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount", "invalid option cost")
		return
	}
	selection, err := h.selections.GetByID(r.Context(), selectionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if selection.BuyerID != buyerID {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}
	encoded, _ := json.Marshal(options)
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.selections.UpdateOptions(r.Context(), tx, selectionID, string(encoded), totalCost)
		if err != nil {
			return err
		}
		if rows == 0 {
			return services.ErrSelectionLocked
		}
		data, _ := json.Marshal(map[string]any{"total_cost": totalCost})
		return h.audit.Log(r.Context(), tx, buyerID, "customization.update", "customization", selectionID, string(data))
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	selection.Options = string(encoded)
	selection.TotalCost = totalCost
	respondSuccess(w, http.StatusOK, selection)
}

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	buyerID, _ := middleware.UserIDFromContext(r.Context())
	selection, err := h.selections.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if selection.BuyerID != buyerID && role != "developer" {
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
		return
	}
	respondSuccess(w, http.StatusOK, selection)
}

func (h *Handler) ListSelections(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
		return
	}
	selections, err := h.selections.ListByBuyer(r.Context(), buyerID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, selections)
}
