package handlers

import (
	"context"
	"io"
	"time"

	"propsales/internal/cache"
	"propsales/internal/config"
	"propsales/internal/models"
	"propsales/internal/services"
	"propsales/internal/store"
	"propsales/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, user models.User) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubDevelopmentStore struct {
	createFn  func(ctx context.Context, tx store.Execer, development models.Development) error
	getByIDFn func(ctx context.Context, developmentID string) (models.Development, error)
	listFn    func(ctx context.Context) ([]models.Development, error)
}

func (s stubDevelopmentStore) Create(ctx context.Context, tx store.Execer, development models.Development) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, development)
}

func (s stubDevelopmentStore) GetByID(ctx context.Context, developmentID string) (models.Development, error) {
	if s.getByIDFn == nil {
		return models.Development{}, nil
	}
	return s.getByIDFn(ctx, developmentID)
}

func (s stubDevelopmentStore) List(ctx context.Context) ([]models.Development, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

type stubUnitStore struct {
	createFn            func(ctx context.Context, tx store.Execer, unit models.Unit) error
	getByIDFn           func(ctx context.Context, unitID string) (models.Unit, error)
	listByDevelopmentFn func(ctx context.Context, developmentID string) ([]models.Unit, error)
}

func (s stubUnitStore) Create(ctx context.Context, tx store.Execer, unit models.Unit) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, unit)
}

func (s stubUnitStore) GetByID(ctx context.Context, unitID string) (models.Unit, error) {
	if s.getByIDFn == nil {
		return models.Unit{}, nil
	}
	return s.getByIDFn(ctx, unitID)
}

func (s stubUnitStore) ListByDevelopment(ctx context.Context, developmentID string) ([]models.Unit, error) {
	if s.listByDevelopmentFn == nil {
		return nil, nil
	}
	return s.listByDevelopmentFn(ctx, developmentID)
}

type stubCustomizationStore struct {
	createFn        func(ctx context.Context, tx store.Execer, selection models.CustomizationSelection) error
	updateOptionsFn func(ctx context.Context, tx store.Execer, selectionID, options string, totalCost int64) (int64, error)
	getByIDFn       func(ctx context.Context, selectionID string) (models.CustomizationSelection, error)
	listByBuyerFn   func(ctx context.Context, buyerID string) ([]models.CustomizationSelection, error)
}

func (s stubCustomizationStore) Create(ctx context.Context, tx store.Execer, selection models.CustomizationSelection) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, selection)
}

func (s stubCustomizationStore) UpdateOptions(ctx context.Context, tx store.Execer, selectionID, options string, totalCost int64) (int64, error) {
	if s.updateOptionsFn == nil {
		return 1, nil
	}
	return s.updateOptionsFn(ctx, tx, selectionID, options, totalCost)
}

func (s stubCustomizationStore) GetByID(ctx context.Context, selectionID string) (models.CustomizationSelection, error) {
	if s.getByIDFn == nil {
		return models.CustomizationSelection{}, nil
	}
	return s.getByIDFn(ctx, selectionID)
}

func (s stubCustomizationStore) ListByBuyer(ctx context.Context, buyerID string) ([]models.CustomizationSelection, error) {
	if s.listByBuyerFn == nil {
		return nil, nil
	}
	return s.listByBuyerFn(ctx, buyerID)
}

type stubSaleStore struct {
	getByIDFn     func(ctx context.Context, saleID string) (models.Sale, error)
	listByBuyerFn func(ctx context.Context, buyerID string) ([]models.Sale, error)
}

func (s stubSaleStore) GetByID(ctx context.Context, saleID string) (models.Sale, error) {
	if s.getByIDFn == nil {
		return models.Sale{}, nil
	}
	return s.getByIDFn(ctx, saleID)
}

func (s stubSaleStore) ListByBuyer(ctx context.Context, buyerID string) ([]models.Sale, error) {
	if s.listByBuyerFn == nil {
		return nil, nil
	}
	return s.listByBuyerFn(ctx, buyerID)
}

type stubPaymentStore struct {
	getByIDFn    func(ctx context.Context, paymentID string) (models.Payment, error)
	listBySaleFn func(ctx context.Context, saleID string) ([]models.Payment, error)
}

func (s stubPaymentStore) GetByID(ctx context.Context, paymentID string) (models.Payment, error) {
	if s.getByIDFn == nil {
		return models.Payment{}, nil
	}
	return s.getByIDFn(ctx, paymentID)
}

func (s stubPaymentStore) ListBySale(ctx context.Context, saleID string) ([]models.Payment, error) {
	if s.listBySaleFn == nil {
		return nil, nil
	}
	return s.listBySaleFn(ctx, saleID)
}

type stubAuditStore struct {
	logFn          func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listByEntityFn func(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error) {
	if s.listByEntityFn == nil {
		return nil, nil
	}
	return s.listByEntityFn(ctx, entityType, entityID, limit, offset)
}

type stubReservationService struct {
	reserveFn           func(ctx context.Context, req services.ReserveRequest) (models.Sale, error)
	sendContractsFn     func(ctx context.Context, actorID, saleID string) (models.Sale, error)
	signContractsFn     func(ctx context.Context, actorID, saleID string) (models.Sale, error)
	exchangeContractsFn func(ctx context.Context, actorID, saleID string) (models.Sale, error)
	completeFn          func(ctx context.Context, actorID, saleID string) (models.Sale, error)
	cancelFn            func(ctx context.Context, actorID, saleID, reason string) (models.Sale, error)
	updateComplianceFn  func(ctx context.Context, actorID, saleID string, update store.ComplianceUpdate) (models.Sale, error)
}

func (s stubReservationService) Reserve(ctx context.Context, req services.ReserveRequest) (models.Sale, error) {
	if s.reserveFn == nil {
		return models.Sale{}, nil
	}
	return s.reserveFn(ctx, req)
}

func (s stubReservationService) SendContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	if s.sendContractsFn == nil {
		return models.Sale{}, nil
	}
	return s.sendContractsFn(ctx, actorID, saleID)
}

func (s stubReservationService) SignContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	if s.signContractsFn == nil {
		return models.Sale{}, nil
	}
	return s.signContractsFn(ctx, actorID, saleID)
}

func (s stubReservationService) ExchangeContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	if s.exchangeContractsFn == nil {
		return models.Sale{}, nil
	}
	return s.exchangeContractsFn(ctx, actorID, saleID)
}

func (s stubReservationService) Complete(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	if s.completeFn == nil {
		return models.Sale{}, nil
	}
	return s.completeFn(ctx, actorID, saleID)
}

func (s stubReservationService) Cancel(ctx context.Context, actorID, saleID, reason string) (models.Sale, error) {
	if s.cancelFn == nil {
		return models.Sale{}, nil
	}
	return s.cancelFn(ctx, actorID, saleID, reason)
}

func (s stubReservationService) UpdateCompliance(ctx context.Context, actorID, saleID string, update store.ComplianceUpdate) (models.Sale, error) {
	if s.updateComplianceFn == nil {
		return models.Sale{}, nil
	}
	return s.updateComplianceFn(ctx, actorID, saleID, update)
}

type stubPaymentService struct {
	settleFn func(ctx context.Context, actorID, paymentID string, settledAmount int64) (models.Payment, error)
	failFn   func(ctx context.Context, actorID, paymentID, reason string) error
}

func (s stubPaymentService) SettlePayment(ctx context.Context, actorID, paymentID string, settledAmount int64) (models.Payment, error) {
	if s.settleFn == nil {
		return models.Payment{}, nil
	}
	return s.settleFn(ctx, actorID, paymentID, settledAmount)
}

func (s stubPaymentService) FailPayment(ctx context.Context, actorID, paymentID, reason string) error {
	if s.failFn == nil {
		return nil
	}
	return s.failFn(ctx, actorID, paymentID, reason)
}

func newTestHandler(
	txRunner fakeTxRunner,
	users stubUserStore,
	developments stubDevelopmentStore,
	units stubUnitStore,
	selections stubCustomizationStore,
	sales stubSaleStore,
	payments stubPaymentStore,
	audit stubAuditStore,
	reservations stubReservationService,
	settlements stubPaymentService,
) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	caches := cache.NewRegistry(100, time.Minute, 0)
	return New(txRunner, cfg, log, users, developments, units, selections, sales, payments, audit, reservations, settlements, caches, websocket.NewHub())
}
