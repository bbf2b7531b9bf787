package handlers

import (
	"net/http"

	"propsales/internal/cache"
	"propsales/internal/config"
	"propsales/internal/db"
	"propsales/internal/middleware"
	"propsales/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	log          *logrus.Logger
	validate     *validator.Validate
	users        UserStore
	developments DevelopmentStore
	units        UnitStore
	selections   CustomizationStore
	sales        SaleStore
	payments     PaymentStore
	audit        AuditStore
	reservations ReservationService
	settlements  PaymentService
	caches       *cache.Registry
	hub          *websocket.Hub
}

func New(
	txRunner db.TxRunner,
	cfg config.Config,
	log *logrus.Logger,
	users UserStore,
	developments DevelopmentStore,
	units UnitStore,
	selections CustomizationStore,
	sales SaleStore,
	payments PaymentStore,
	audit AuditStore,
	reservations ReservationService,
	settlements PaymentService,
	caches *cache.Registry,
	hub *websocket.Hub,
) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		log:          log,
		validate:     validator.New(),
		users:        users,
		developments: developments,
		units:        units,
		selections:   selections,
		sales:        sales,
		payments:     payments,
		audit:        audit,
		reservations: reservations,
		settlements:  settlements,
		caches:       caches,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Route("/developments", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListDevelopments)
		r.Get("/{id}", h.GetDevelopment)
		r.Get("/{id}/units", h.ListUnits)
		r.With(middleware.RequireRole("developer")).Post("/", h.CreateDevelopment)
		r.With(middleware.RequireRole("developer")).Post("/{id}/units", h.CreateUnit)
	})

	router.Route("/units", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/{id}", h.GetUnit)
		r.Post("/{id}/customizations", h.CreateSelection)
	})

	router.Route("/customizations", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/", h.ListSelections)
		r.Get("/{id}", h.GetSelection)
		r.Put("/{id}", h.UpdateSelection)
	})

	router.Route("/sales", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/", h.Reserve)
		r.Get("/", h.ListSales)
		r.Get("/{id}", h.GetSale)
		r.Get("/{id}/payments", h.ListSalePayments)
		r.Post("/{id}/sign-contracts", h.SignContracts)
		r.Post("/{id}/cancel", h.CancelSale)
		r.With(middleware.RequireRole("developer")).Post("/{id}/send-contracts", h.SendContracts)
		r.With(middleware.RequireRole("developer")).Post("/{id}/exchange-contracts", h.ExchangeContracts)
		r.With(middleware.RequireRole("developer")).Post("/{id}/complete", h.CompleteSale)
		r.With(middleware.RequireRole("developer")).Patch("/{id}/compliance", h.UpdateCompliance)
		r.With(middleware.RequireRole("developer")).Get("/{id}/audit", h.ListSaleAudit)
	})

	router.Route("/payments", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/{id}", h.GetPayment)
		r.With(middleware.RequireRole("developer")).Post("/{id}/settle", h.SettlePayment)
		r.With(middleware.RequireRole("developer")).Post("/{id}/fail", h.FailPayment)
	})

	router.Get("/ws/sales", h.WSSales)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
