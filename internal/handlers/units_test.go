package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"propsales/internal/middleware"
	"propsales/internal/models"
)

func TestListUnitsServesFromCache(t *testing.T) {
	calls := 0
	units := stubUnitStore{
		listByDevelopmentFn: func(_ context.Context, developmentID string) ([]models.Unit, error) {
			calls++
			return []models.Unit{
				{ID: "unit-1", DevelopmentID: developmentID, Name: "Plot 1", BasePrice: 29500000, Status: models.UnitAvailable},
			}, nil
		},
	}
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubDevelopmentStore{}, units, stubCustomizationStore{}, stubSaleStore{}, stubPaymentStore{}, stubAuditStore{}, stubReservationService{}, stubPaymentService{})

	for i := 0; i < 3; i++ {
		req := authedRequest(t, http.MethodGet, "/developments/dev-1/units", "", "buyer-1", "buyer")
		req = withURLParam(req, "id", "dev-1")
		rr := httptest.NewRecorder()
		middleware.Auth("secret")(http.HandlerFunc(handler.ListUnits)).ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}
	if calls != 1 {
		t.Errorf("store queried %d times, want 1 (cache hit on repeats)", calls)
	}
}

func TestCreateUnitInvalidatesListCache(t *testing.T) {
	units := stubUnitStore{
		listByDevelopmentFn: func(_ context.Context, developmentID string) ([]models.Unit, error) {
			return []models.Unit{{ID: "unit-1", DevelopmentID: developmentID, BasePrice: 100}}, nil
		},
	}
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubDevelopmentStore{}, units, stubCustomizationStore{}, stubSaleStore{}, stubPaymentStore{}, stubAuditStore{}, stubReservationService{}, stubPaymentService{})

	listReq := authedRequest(t, http.MethodGet, "/developments/dev-1/units", "", "buyer-1", "buyer")
	listReq = withURLParam(listReq, "id", "dev-1")
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(handler.ListUnits)).ServeHTTP(rr, listReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if handler.caches.Units.Len() != 1 {
		t.Fatalf("expected cached list, cache len = %d", handler.caches.Units.Len())
	}

	createReq := authedRequest(t, http.MethodPost, "/developments/dev-1/units", `{"name":"Plot 2","base_price":"295000.00"}`, "dev-1", "developer")
	createReq = withURLParam(createReq, "id", "dev-1")
	rr = httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(handler.CreateUnit)).ServeHTTP(rr, createReq)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if handler.caches.Units.Len() != 0 {
		t.Errorf("unit list cache should be invalidated, len = %d", handler.caches.Units.Len())
	}
}

func TestCreateUnitRejectsBadPrice(t *testing.T) {
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubDevelopmentStore{}, stubUnitStore{}, stubCustomizationStore{}, stubSaleStore{}, stubPaymentStore{}, stubAuditStore{}, stubReservationService{}, stubPaymentService{})

	req := authedRequest(t, http.MethodPost, "/developments/dev-1/units", `{"name":"Plot 2","base_price":"-10.00"}`, "dev-1", "developer")
	req = withURLParam(req, "id", "dev-1")
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(handler.CreateUnit)).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestGetUnitFormatsPrice(t *testing.T) {
	units := stubUnitStore{
		getByIDFn: func(_ context.Context, unitID string) (models.Unit, error) {
			return models.Unit{ID: unitID, BasePrice: 29500000, Status: models.UnitAvailable}, nil
		},
	}
	handler := newTestHandler(fakeTxRunner{}, stubUserStore{}, stubDevelopmentStore{}, units, stubCustomizationStore{}, stubSaleStore{}, stubPaymentStore{}, stubAuditStore{}, stubReservationService{}, stubPaymentService{})

	req := authedRequest(t, http.MethodGet, "/units/unit-1", "", "buyer-1", "buyer")
	req = withURLParam(req, "id", "unit-1")
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(http.HandlerFunc(handler.GetUnit)).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload envelope
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data := payload.Data.(map[string]any)
	if data["base_price"] != "295000.00" {
		t.Errorf("base_price = %v, want 295000.00", data["base_price"])
	}
}
