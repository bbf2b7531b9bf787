package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propsales/internal/cache"
	"propsales/internal/config"
	"propsales/internal/db"
	"propsales/internal/events"
	"propsales/internal/handlers"
	"propsales/internal/logging"
	"propsales/internal/pricing"
	"propsales/internal/services"
	"propsales/internal/store"
	"propsales/internal/websocket"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	depositPercent, err := decimal.NewFromString(cfg.DepositPercent)
	if err != nil {
		log.WithError(err).Fatal("invalid DEPOSIT_PERCENT")
	}
	stampDutyPercent, err := decimal.NewFromString(cfg.StampDutyPercent)
	if err != nil {
		log.WithError(err).Fatal("invalid STAMP_DUTY_PERCENT")
	}
	rates := pricing.Rates{
		DepositPercent:   depositPercent,
		StampDutyPercent: stampDutyPercent,
		LegalFeesMinor:   cfg.LegalFeesMinor,
	}

	users := store.NewUserStore(database)
	developments := store.NewDevelopmentStore(database)
	units := store.NewUnitStore(database)
	selections := store.NewCustomizationStore(database)
	sales := store.NewSaleStore(database)
	payments := store.NewPaymentStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)

	caches := cache.NewRegistry(cfg.CacheMaxSize, cfg.CacheDefaultTTL, cfg.CacheSweepInterval)
	defer caches.Close()

	hub := websocket.NewHub()
	publisher := events.NewLogPublisher(log)

	paymentSvc := services.NewPaymentService(txRunner, payments, sales, audit, log)
	reservationSvc := services.NewReservationService(
		txRunner, units, sales, payments, selections, users,
		paymentSvc, audit, publisher, hub, rates, cfg.ReservationTTL, log,
	)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("* * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		if err := reservationSvc.ExpireReservations(ctx); err != nil {
			log.WithError(err).Error("reservation expiry sweep failed")
		}
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule reservation expiry sweep")
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := handlers.New(
		txRunner, cfg, log, users, developments, units, selections,
		sales, payments, audit, reservationSvc, paymentSvc, caches, hub,
	)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("propsales API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}
