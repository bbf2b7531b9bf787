package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propsales/internal/db"
	"propsales/internal/events"
	"propsales/internal/models"
	"propsales/internal/pricing"
	"propsales/internal/reference"
	"propsales/internal/store"
	"propsales/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnitNotAvailable      = errors.New("unit not available")
	ErrSelectionLocked       = errors.New("customization selection already locked")
	ErrSelectionUnitMismatch = errors.New("customization selection is for a different unit")
	ErrReferenceExhausted    = errors.New("could not generate a unique sale reference")
)

// TransitionError reports a state-machine guard failure. It carries the
// sale's current status and the attempted action so callers never see a
// silent no-op.
type TransitionError struct {
	Current models.SaleStatus
	Action  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a sale in status %s", e.Action, e.Current)
}

type UnitStore interface {
	Get(ctx context.Context, q store.Getter, unitID string) (models.Unit, error)
	ReserveIfAvailable(ctx context.Context, tx store.Execer, unitID string, expiresAt time.Time) (int64, error)
	SetStatus(ctx context.Context, tx store.Execer, unitID string, status models.UnitStatus, expiresAt *time.Time) error
}

type CustomizationStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, selectionID string) (models.CustomizationSelection, error)
	Approve(ctx context.Context, tx store.Execer, selectionID, saleID string) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// PaymentScheduler creates the deposit/balance pair inside the reservation
// transaction.
type PaymentScheduler interface {
	SchedulePayments(ctx context.Context, tx store.Execer, sale models.Sale) ([]models.Payment, error)
}

type SaleHub interface {
	BroadcastSale(userID string, update websocket.SaleUpdate)
}

// ReservationService owns the sale lifecycle from RESERVED to COMPLETED or
// CANCELLED, together with the coupled unit-availability flips. Every
// transition runs as one storage transaction; notifications go out only after
// commit and never roll a transition back.
type ReservationService struct {
	txRunner       db.TxRunner
	units          UnitStore
	sales          SaleStore
	payments       PaymentStore
	selections     CustomizationStore
	users          UserStore
	scheduler      PaymentScheduler
	audit          AuditStore
	publisher      events.Publisher
	hub            SaleHub
	rates          pricing.Rates
	reservationTTL time.Duration
	log            *logrus.Logger
}

func NewReservationService(
	txRunner db.TxRunner,
	units UnitStore,
	sales SaleStore,
	payments PaymentStore,
	selections CustomizationStore,
	users UserStore,
	scheduler PaymentScheduler,
	audit AuditStore,
	publisher events.Publisher,
	hub SaleHub,
	rates pricing.Rates,
	reservationTTL time.Duration,
	log *logrus.Logger,
) *ReservationService {
	return &ReservationService{
		txRunner:       txRunner,
		units:          units,
		sales:          sales,
		payments:       payments,
		selections:     selections,
		users:          users,
		scheduler:      scheduler,
		audit:          audit,
		publisher:      publisher,
		hub:            hub,
		rates:          rates,
		reservationTTL: reservationTTL,
		log:            log,
	}
}

type ReserveRequest struct {
	BuyerID          string
	UnitID           string
	SelectionID      *string
	MortgageRequired bool
}

const maxReferenceAttempts = 3

// Reserve creates a sale on an AVAILABLE unit. The unit flip is a
// conditional update, so of two concurrent calls exactly one wins and the
// loser gets ErrUnitNotAvailable. The sale reference is re-rolled on a
// uniqueness collision, bounded to a few attempts.
func (s *ReservationService) Reserve(ctx context.Context, req ReserveRequest) (models.Sale, error) {
	var sale models.Sale
	var attemptErr error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref := reference.NewSaleReference(time.Now())
		sale, attemptErr = s.reserveOnce(ctx, req, ref)
		if attemptErr == nil {
			break
		}
		if db.IsUniqueViolation(attemptErr, "sales_reference_key") {
			continue
		}
		if db.IsUniqueViolation(attemptErr, "sales_one_active_per_unit") {
			return models.Sale{}, ErrUnitNotAvailable
		}
		return models.Sale{}, attemptErr
	}
	if attemptErr != nil {
		return models.Sale{}, fmt.Errorf("%w: %v", ErrReferenceExhausted, attemptErr)
	}

	s.log.WithFields(logrus.Fields{
		"sale_id":   sale.ID,
		"reference": sale.Reference,
		"unit_id":   sale.UnitID,
	}).Info("unit reserved")
	s.notifyTransition(ctx, sale, "")
	s.publishCaseRequest(ctx, sale)
	return sale, nil
}

func (s *ReservationService) reserveOnce(ctx context.Context, req ReserveRequest, ref string) (models.Sale, error) {
	var sale models.Sale
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		unit, err := s.units.Get(ctx, tx, req.UnitID)
		if err != nil {
			return err
		}
		expiresAt := time.Now().Add(s.reservationTTL)
		rows, err := s.units.ReserveIfAvailable(ctx, tx, unit.ID, expiresAt)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrUnitNotAvailable
		}

		var optionCosts []int64
		var selection models.CustomizationSelection
		if req.SelectionID != nil {
			selection, err = s.selections.GetForUpdate(ctx, tx, *req.SelectionID)
			if err != nil {
				return err
			}
			if selection.Status == models.SelectionApproved {
				return ErrSelectionLocked
			}
			if selection.UnitID != unit.ID {
				return ErrSelectionUnitMismatch
			}
			optionCosts = []int64{selection.TotalCost}
		}

		breakdown, err := pricing.Calculate(unit.BasePrice, optionCosts, s.rates)
		if err != nil {
			return err
		}

		sale = models.Sale{
			ID:                   uuid.NewString(),
			Reference:            ref,
			UnitID:               unit.ID,
			BuyerID:              req.BuyerID,
			DevelopmentID:        unit.DevelopmentID,
			Type:                 models.SalePurchase,
			Status:               models.SaleReserved,
			AgreedPrice:          breakdown.GrandTotal,
			DepositAmount:        breakdown.DepositAmount,
			TotalPaid:            0,
			OutstandingBalance:   breakdown.GrandTotal,
			MortgageRequired:     req.MortgageRequired,
			CustomizationsLocked: req.SelectionID != nil,
			ReservedAt:           time.Now(),
		}
		if err := s.sales.Create(ctx, tx, sale); err != nil {
			return err
		}
		if req.SelectionID != nil {
			if err := s.selections.Approve(ctx, tx, selection.ID, sale.ID); err != nil {
				return err
			}
		}
		if _, err := s.scheduler.SchedulePayments(ctx, tx, sale); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]any{
			"reference":    sale.Reference,
			"unit_id":      sale.UnitID,
			"agreed_price": sale.AgreedPrice,
		})
		return s.audit.Log(ctx, tx, req.BuyerID, "sale.reserve", "sale", sale.ID, string(data))
	})
	if err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

// SendContracts moves RESERVED to CONTRACT_SENT.
func (s *ReservationService) SendContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	return s.transition(ctx, actorID, saleID, "send_contracts", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status != models.SaleReserved {
			return "", &TransitionError{Current: sale.Status, Action: "send_contracts"}
		}
		sale.ContractsSent = true
		return models.SaleContractSent, s.sales.MarkContractsSent(ctx, tx, sale.ID)
	})
}

// SignContracts moves CONTRACT_SENT to CONTRACT_SIGNED.
func (s *ReservationService) SignContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	return s.transition(ctx, actorID, saleID, "sign_contracts", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status != models.SaleContractSent || !sale.ContractsSent {
			return "", &TransitionError{Current: sale.Status, Action: "sign_contracts"}
		}
		sale.ContractsSigned = true
		return models.SaleContractSigned, s.sales.MarkContractsSigned(ctx, tx, sale.ID)
	})
}

// ExchangeContracts moves CONTRACT_SIGNED to CONTRACTS_EXCHANGED, requiring
// the deposit payment to have settled.
func (s *ReservationService) ExchangeContracts(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	return s.transition(ctx, actorID, saleID, "exchange_contracts", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status != models.SaleContractSigned {
			return "", &TransitionError{Current: sale.Status, Action: "exchange_contracts"}
		}
		deposit, err := s.payments.GetByReference(ctx, tx, DepositReference(sale.Reference))
		if err != nil {
			return "", err
		}
		if deposit.Status != models.PaymentCompleted {
			return "", &TransitionError{Current: sale.Status, Action: "exchange_contracts"}
		}
		sale.ContractsExchanged = true
		if err := s.sales.MarkContractsExchanged(ctx, tx, sale.ID); err != nil {
			return "", err
		}
		return models.SaleContractsExchanged, s.units.SetStatus(ctx, tx, sale.UnitID, models.UnitSaleAgreed, nil)
	})
}

// Complete closes a fully paid CONTRACTS_EXCHANGED sale and marks the unit
// SOLD.
func (s *ReservationService) Complete(ctx context.Context, actorID, saleID string) (models.Sale, error) {
	return s.transition(ctx, actorID, saleID, "complete", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status != models.SaleContractsExchanged || sale.OutstandingBalance != 0 {
			return "", &TransitionError{Current: sale.Status, Action: "complete"}
		}
		if err := s.sales.Complete(ctx, tx, sale.ID); err != nil {
			return "", err
		}
		return models.SaleCompleted, s.units.SetStatus(ctx, tx, sale.UnitID, models.UnitSold, nil)
	})
}

// Cancel aborts any non-terminal sale, releases the unit and fails every
// pending payment.
func (s *ReservationService) Cancel(ctx context.Context, actorID, saleID, reason string) (models.Sale, error) {
	return s.transition(ctx, actorID, saleID, "cancel", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status.Terminal() {
			return "", &TransitionError{Current: sale.Status, Action: "cancel"}
		}
		if err := s.sales.Cancel(ctx, tx, sale.ID, reason); err != nil {
			return "", err
		}
		sale.CancelledReason = &reason
		if err := s.units.SetStatus(ctx, tx, sale.UnitID, models.UnitAvailable, nil); err != nil {
			return "", err
		}
		if _, err := s.payments.FailPendingBySale(ctx, tx, sale.ID, reason); err != nil {
			return "", err
		}
		return models.SaleCancelled, nil
	})
}

// UpdateCompliance flips the buyer-verification flags on a non-terminal sale.
func (s *ReservationService) UpdateCompliance(ctx context.Context, actorID, saleID string, update store.ComplianceUpdate) (models.Sale, error) {
	var updated models.Sale
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		sale, err := s.sales.GetForUpdate(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status.Terminal() {
			return &TransitionError{Current: sale.Status, Action: "update_compliance"}
		}
		if err := s.sales.UpdateCompliance(ctx, tx, saleID, update); err != nil {
			return err
		}
		applyCompliance(&sale, update)
		updated = sale
		data, _ := json.Marshal(update)
		return s.audit.Log(ctx, tx, actorID, "sale.compliance", "sale", saleID, string(data))
	})
	if err != nil {
		return models.Sale{}, err
	}
	return updated, nil
}

// ExpireReservations cancels every RESERVED sale whose reservation window
// has lapsed. It is invoked from the scheduler, not by users.
func (s *ReservationService) ExpireReservations(ctx context.Context) error {
	expired, err := s.sales.ListExpiredReserved(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, sale := range expired {
		if _, err := s.expireOne(ctx, sale.ID); err != nil {
			s.log.WithError(err).WithField("sale_id", sale.ID).Error("failed to expire reservation")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"sale_id":   sale.ID,
			"reference": sale.Reference,
		}).Info("reservation expired")
	}
	return nil
}

// expireOne re-checks the status under lock: a sale that progressed past
// RESERVED between the sweep query and the lock is left alone.
func (s *ReservationService) expireOne(ctx context.Context, saleID string) (models.Sale, error) {
	return s.transition(ctx, "system", saleID, "expire", func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error) {
		if sale.Status != models.SaleReserved {
			return "", &TransitionError{Current: sale.Status, Action: "expire"}
		}
		if err := s.sales.Cancel(ctx, tx, sale.ID, "expired"); err != nil {
			return "", err
		}
		if err := s.units.SetStatus(ctx, tx, sale.UnitID, models.UnitAvailable, nil); err != nil {
			return "", err
		}
		if _, err := s.payments.FailPendingBySale(ctx, tx, sale.ID, "expired"); err != nil {
			return "", err
		}
		return models.SaleCancelled, nil
	})
}

type transitionFn func(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) (models.SaleStatus, error)

func (s *ReservationService) transition(ctx context.Context, actorID, saleID, action string, fn transitionFn) (models.Sale, error) {
	var sale models.Sale
	var fromStatus models.SaleStatus
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.sales.GetForUpdate(ctx, tx, saleID)
		if err != nil {
			return err
		}
		fromStatus = current.Status
		toStatus, err := fn(ctx, tx, &current)
		if err != nil {
			return err
		}
		current.Status = toStatus
		sale = current
		data, _ := json.Marshal(map[string]string{
			"from": string(fromStatus),
			"to":   string(toStatus),
		})
		return s.audit.Log(ctx, tx, actorID, "sale."+action, "sale", saleID, string(data))
	})
	if err != nil {
		return models.Sale{}, err
	}
	s.log.WithFields(logrus.Fields{
		"sale_id": sale.ID,
		"from":    fromStatus,
		"to":      sale.Status,
	}).Info("sale transitioned")
	s.notifyTransition(ctx, sale, fromStatus)
	return sale, nil
}

func (s *ReservationService) notifyTransition(ctx context.Context, sale models.Sale, from models.SaleStatus) {
	s.publisher.PublishStatusChanged(ctx, events.StatusChanged{
		SaleID:     sale.ID,
		Reference:  sale.Reference,
		FromStatus: from,
		ToStatus:   sale.Status,
		Timestamp:  time.Now().UTC(),
	})
	s.hub.BroadcastSale(sale.BuyerID, websocket.SaleUpdate{
		SaleID:    sale.ID,
		Reference: sale.Reference,
		Status:    string(sale.Status),
	})
}

func (s *ReservationService) publishCaseRequest(ctx context.Context, sale models.Sale) {
	buyer, err := s.users.GetByID(ctx, sale.BuyerID)
	if err != nil {
		s.log.WithError(err).WithField("sale_id", sale.ID).Warn("could not load buyer for case request")
	}
	s.publisher.PublishCaseOpenRequested(ctx, events.CaseOpenRequested{
		SaleID:        sale.ID,
		Reference:     sale.Reference,
		UnitID:        sale.UnitID,
		DevelopmentID: sale.DevelopmentID,
		AgreedPrice:   sale.AgreedPrice,
		BuyerID:       sale.BuyerID,
		BuyerName:     buyer.Username,
		BuyerEmail:    buyer.Email,
		Timestamp:     time.Now().UTC(),
	})
}

func applyCompliance(sale *models.Sale, update store.ComplianceUpdate) {
	if update.MortgageApproved != nil {
		sale.MortgageApproved = *update.MortgageApproved
	}
	if update.KYCCompleted != nil {
		sale.KYCCompleted = *update.KYCCompleted
	}
	if update.AMLCompleted != nil {
		sale.AMLCompleted = *update.AMLCompleted
	}
	if update.FundsVerified != nil {
		sale.FundsVerified = *update.FundsVerified
	}
}
