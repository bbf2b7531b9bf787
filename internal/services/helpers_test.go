package services

import (
	"context"
	"io"
	"time"

	"propsales/internal/events"
	"propsales/internal/models"
	"propsales/internal/store"
	"propsales/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	f.calls++
	return fn(nil)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubPaymentStore struct {
	insertFn            func(payment models.Payment) error
	getForUpdateFn      func(paymentID string) (models.Payment, error)
	getByReferenceFn    func(reference string) (models.Payment, error)
	markCompletedFn     func(paymentID string, settledAmount int64) error
	markFailedFn        func(paymentID, reason string) error
	failPendingBySaleFn func(saleID, reason string) (int64, error)

	inserted []models.Payment
}

func (s *stubPaymentStore) Insert(_ context.Context, _ store.Execer, payment models.Payment) error {
	s.inserted = append(s.inserted, payment)
	if s.insertFn != nil {
		return s.insertFn(payment)
	}
	return nil
}

func (s *stubPaymentStore) GetForUpdate(_ context.Context, _ store.Getter, paymentID string) (models.Payment, error) {
	if s.getForUpdateFn != nil {
		return s.getForUpdateFn(paymentID)
	}
	return models.Payment{}, nil
}

func (s *stubPaymentStore) GetByReference(_ context.Context, _ store.Getter, reference string) (models.Payment, error) {
	if s.getByReferenceFn != nil {
		return s.getByReferenceFn(reference)
	}
	return models.Payment{}, nil
}

func (s *stubPaymentStore) MarkCompleted(_ context.Context, _ store.Execer, paymentID string, settledAmount int64) error {
	if s.markCompletedFn != nil {
		return s.markCompletedFn(paymentID, settledAmount)
	}
	return nil
}

func (s *stubPaymentStore) MarkFailed(_ context.Context, _ store.Execer, paymentID, reason string) error {
	if s.markFailedFn != nil {
		return s.markFailedFn(paymentID, reason)
	}
	return nil
}

func (s *stubPaymentStore) FailPendingBySale(_ context.Context, _ store.Execer, saleID, reason string) (int64, error) {
	if s.failPendingBySaleFn != nil {
		return s.failPendingBySaleFn(saleID, reason)
	}
	return 0, nil
}

type stubSaleStore struct {
	createFn           func(sale models.Sale) error
	getByIDFn          func(saleID string) (models.Sale, error)
	getForUpdateFn     func(saleID string) (models.Sale, error)
	listExpiredFn      func(now time.Time) ([]models.Sale, error)
	markSentFn         func(saleID string) error
	markSignedFn       func(saleID string) error
	markExchangedFn    func(saleID string) error
	completeFn         func(saleID string) error
	cancelFn           func(saleID, reason string) error
	applySettlementFn  func(saleID string, totalPaid, outstanding int64) error
	updateComplianceFn func(saleID string, update store.ComplianceUpdate) error

	created   []models.Sale
	cancelled []string
}

func (s *stubSaleStore) Create(_ context.Context, _ store.Execer, sale models.Sale) error {
	s.created = append(s.created, sale)
	if s.createFn != nil {
		return s.createFn(sale)
	}
	return nil
}

func (s *stubSaleStore) GetByID(_ context.Context, saleID string) (models.Sale, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(saleID)
	}
	return models.Sale{}, nil
}

func (s *stubSaleStore) GetForUpdate(_ context.Context, _ store.Getter, saleID string) (models.Sale, error) {
	if s.getForUpdateFn != nil {
		return s.getForUpdateFn(saleID)
	}
	return models.Sale{}, nil
}

func (s *stubSaleStore) ListExpiredReserved(_ context.Context, now time.Time) ([]models.Sale, error) {
	if s.listExpiredFn != nil {
		return s.listExpiredFn(now)
	}
	return nil, nil
}

func (s *stubSaleStore) MarkContractsSent(_ context.Context, _ store.Execer, saleID string) error {
	if s.markSentFn != nil {
		return s.markSentFn(saleID)
	}
	return nil
}

func (s *stubSaleStore) MarkContractsSigned(_ context.Context, _ store.Execer, saleID string) error {
	if s.markSignedFn != nil {
		return s.markSignedFn(saleID)
	}
	return nil
}

func (s *stubSaleStore) MarkContractsExchanged(_ context.Context, _ store.Execer, saleID string) error {
	if s.markExchangedFn != nil {
		return s.markExchangedFn(saleID)
	}
	return nil
}

func (s *stubSaleStore) Complete(_ context.Context, _ store.Execer, saleID string) error {
	if s.completeFn != nil {
		return s.completeFn(saleID)
	}
	return nil
}

func (s *stubSaleStore) Cancel(_ context.Context, _ store.Execer, saleID, reason string) error {
	s.cancelled = append(s.cancelled, saleID)
	if s.cancelFn != nil {
		return s.cancelFn(saleID, reason)
	}
	return nil
}

func (s *stubSaleStore) ApplySettlement(_ context.Context, _ store.Execer, saleID string, totalPaid, outstanding int64) error {
	if s.applySettlementFn != nil {
		return s.applySettlementFn(saleID, totalPaid, outstanding)
	}
	return nil
}

func (s *stubSaleStore) UpdateCompliance(_ context.Context, _ store.Execer, saleID string, update store.ComplianceUpdate) error {
	if s.updateComplianceFn != nil {
		return s.updateComplianceFn(saleID, update)
	}
	return nil
}

type stubUnitStore struct {
	getFn                func(unitID string) (models.Unit, error)
	reserveIfAvailableFn func(unitID string, expiresAt time.Time) (int64, error)
	setStatusFn          func(unitID string, status models.UnitStatus, expiresAt *time.Time) error

	statusSet map[string]models.UnitStatus
}

func (s *stubUnitStore) Get(_ context.Context, _ store.Getter, unitID string) (models.Unit, error) {
	if s.getFn != nil {
		return s.getFn(unitID)
	}
	return models.Unit{}, nil
}

func (s *stubUnitStore) ReserveIfAvailable(_ context.Context, _ store.Execer, unitID string, expiresAt time.Time) (int64, error) {
	if s.reserveIfAvailableFn != nil {
		return s.reserveIfAvailableFn(unitID, expiresAt)
	}
	return 1, nil
}

func (s *stubUnitStore) SetStatus(_ context.Context, _ store.Execer, unitID string, status models.UnitStatus, expiresAt *time.Time) error {
	if s.statusSet == nil {
		s.statusSet = make(map[string]models.UnitStatus)
	}
	s.statusSet[unitID] = status
	if s.setStatusFn != nil {
		return s.setStatusFn(unitID, status, expiresAt)
	}
	return nil
}

type stubCustomizationStore struct {
	getForUpdateFn func(selectionID string) (models.CustomizationSelection, error)
	approveFn      func(selectionID, saleID string) error

	approved []string
}

func (s *stubCustomizationStore) GetForUpdate(_ context.Context, _ store.Getter, selectionID string) (models.CustomizationSelection, error) {
	if s.getForUpdateFn != nil {
		return s.getForUpdateFn(selectionID)
	}
	return models.CustomizationSelection{}, nil
}

func (s *stubCustomizationStore) Approve(_ context.Context, _ store.Execer, selectionID, saleID string) error {
	s.approved = append(s.approved, selectionID)
	if s.approveFn != nil {
		return s.approveFn(selectionID, saleID)
	}
	return nil
}

type stubUserStore struct {
	getByIDFn func(userID string) (models.User, error)
}

func (s *stubUserStore) GetByID(_ context.Context, userID string) (models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(userID)
	}
	return models.User{}, nil
}

type stubScheduler struct {
	scheduleFn func(sale models.Sale) ([]models.Payment, error)

	scheduled []models.Sale
}

func (s *stubScheduler) SchedulePayments(_ context.Context, _ store.Execer, sale models.Sale) ([]models.Payment, error) {
	s.scheduled = append(s.scheduled, sale)
	if s.scheduleFn != nil {
		return s.scheduleFn(sale)
	}
	return nil, nil
}

type auditEntry struct {
	actorID    string
	action     string
	entityType string
	entityID   string
	data       string
}

type stubAuditStore struct {
	logFn func(entry auditEntry) error

	entries []auditEntry
}

func (s *stubAuditStore) Log(_ context.Context, _ store.Execer, actorID, action, entityType, entityID, data string) error {
	entry := auditEntry{actorID: actorID, action: action, entityType: entityType, entityID: entityID, data: data}
	s.entries = append(s.entries, entry)
	if s.logFn != nil {
		return s.logFn(entry)
	}
	return nil
}

type stubPublisher struct {
	statusChanged []events.StatusChanged
	caseRequested []events.CaseOpenRequested
}

func (s *stubPublisher) PublishStatusChanged(_ context.Context, event events.StatusChanged) {
	s.statusChanged = append(s.statusChanged, event)
}

func (s *stubPublisher) PublishCaseOpenRequested(_ context.Context, event events.CaseOpenRequested) {
	s.caseRequested = append(s.caseRequested, event)
}

type stubHub struct {
	updates []websocket.SaleUpdate
}

func (s *stubHub) BroadcastSale(_ string, update websocket.SaleUpdate) {
	s.updates = append(s.updates, update)
}
