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

type createDevelopmentRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Location *string `json:"location" validate:"omitempty,max=255"`
}

func (h *Handler) CreateDevelopment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req createDevelopmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_payload", "invalid payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	development := models.Development{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Location: req.Location,
	}
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.developments.Create(r.Context(), tx, development); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{"name": development.Name})
		return h.audit.Log(r.Context(), tx, userID, "development.create", "development", development.ID, string(data))
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.caches.Developments.Invalidate(cache.Key("developments", "list"))
	respondSuccess(w, http.StatusCreated, development)
}

func (h *Handler) ListDevelopments(w http.ResponseWriter, r *http.Request) {
	key := cache.Key("developments", "list")
	if cached, ok := h.caches.Developments.Get(key); ok {
		respondSuccess(w, http.StatusOK, cached)
		return
	}
	developments, err := h.developments.List(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.caches.Developments.Set(key, developments, 0)
	respondSuccess(w, http.StatusOK, developments)
}

func (h *Handler) GetDevelopment(w http.ResponseWriter, r *http.Request) {
	developmentID := chi.URLParam(r, "id")
	key := cache.Key("development", developmentID)
	if cached, ok := h.caches.Developments.Get(key); ok {
		respondSuccess(w, http.StatusOK, cached)
		return
	}
	development, err := h.developments.GetByID(r.Context(), developmentID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.caches.Developments.Set(key, development, 0)
	respondSuccess(w, http.StatusOK, development)
}
