package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"propsales/internal/db"
	"propsales/internal/models"
	"propsales/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrPaymentNotPending = errors.New("payment not pending")
	ErrOverpayment       = errors.New("settlement exceeds agreed price")
)

type PaymentStore interface {
	Insert(ctx context.Context, tx store.Execer, payment models.Payment) error
	GetForUpdate(ctx context.Context, tx store.Getter, paymentID string) (models.Payment, error)
	GetByReference(ctx context.Context, q store.Getter, reference string) (models.Payment, error)
	MarkCompleted(ctx context.Context, tx store.Execer, paymentID string, settledAmount int64) error
	MarkFailed(ctx context.Context, tx store.Execer, paymentID, reason string) error
	FailPendingBySale(ctx context.Context, tx store.Execer, saleID, reason string) (int64, error)
}

type SaleStore interface {
	Create(ctx context.Context, tx store.Execer, sale models.Sale) error
	GetByID(ctx context.Context, saleID string) (models.Sale, error)
	GetForUpdate(ctx context.Context, tx store.Getter, saleID string) (models.Sale, error)
	ListExpiredReserved(ctx context.Context, now time.Time) ([]models.Sale, error)
	MarkContractsSent(ctx context.Context, tx store.Execer, saleID string) error
	MarkContractsSigned(ctx context.Context, tx store.Execer, saleID string) error
	MarkContractsExchanged(ctx context.Context, tx store.Execer, saleID string) error
	Complete(ctx context.Context, tx store.Execer, saleID string) error
	Cancel(ctx context.Context, tx store.Execer, saleID, reason string) error
	ApplySettlement(ctx context.Context, tx store.Execer, saleID string, totalPaid, outstanding int64) error
	UpdateCompliance(ctx context.Context, tx store.Execer, saleID string, update store.ComplianceUpdate) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

// PaymentService owns the payment schedule of a sale: the deposit/balance
// pair created at reservation time and their settlement against the sale's
// running totals.
type PaymentService struct {
	txRunner db.TxRunner
	payments PaymentStore
	sales    SaleStore
	audit    AuditStore
	log      *logrus.Logger
}

func NewPaymentService(txRunner db.TxRunner, payments PaymentStore, sales SaleStore, audit AuditStore, log *logrus.Logger) *PaymentService {
	return &PaymentService{
		txRunner: txRunner,
		payments: payments,
		sales:    sales,
		audit:    audit,
		log:      log,
	}
}

// DepositReference and BalanceReference derive the unique payment references
// of a sale.
func DepositReference(saleReference string) string {
	return "DEP-" + saleReference
}

func BalanceReference(saleReference string) string {
	return "BAL-" + saleReference
}

// SchedulePayments creates the PENDING deposit and balance payments for a
// freshly reserved sale. It runs inside the reservation's transaction.
func (s *PaymentService) SchedulePayments(ctx context.Context, tx store.Execer, sale models.Sale) ([]models.Payment, error) {
	if sale.DepositAmount < 0 || sale.AgreedPrice < 0 {
		return nil, ErrInvalidAmount
	}
	if sale.DepositAmount > sale.AgreedPrice {
		return nil, ErrInvalidAmount
	}
	deposit := models.Payment{
		ID:        uuid.NewString(),
		SaleID:    sale.ID,
		Reference: DepositReference(sale.Reference),
		Amount:    sale.DepositAmount,
		Status:    models.PaymentPending,
	}
	balance := models.Payment{
		ID:        uuid.NewString(),
		SaleID:    sale.ID,
		Reference: BalanceReference(sale.Reference),
		Amount:    sale.AgreedPrice - sale.DepositAmount,
		Status:    models.PaymentPending,
	}
	if err := s.payments.Insert(ctx, tx, deposit); err != nil {
		return nil, err
	}
	if err := s.payments.Insert(ctx, tx, balance); err != nil {
		return nil, err
	}
	return []models.Payment{deposit, balance}, nil
}

// SettlePayment moves a PENDING payment to COMPLETED and credits the owning
// sale in the same transaction, holding both row locks so concurrent
// settlements cannot double-credit.
func (s *PaymentService) SettlePayment(ctx context.Context, actorID, paymentID string, settledAmount int64) (models.Payment, error) {
	if settledAmount <= 0 {
		return models.Payment{}, ErrInvalidAmount
	}
	var settled models.Payment
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payment, err := s.payments.GetForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentPending {
			return ErrPaymentNotPending
		}
		sale, err := s.sales.GetForUpdate(ctx, tx, payment.SaleID)
		if err != nil {
			return err
		}
		newTotal := sale.TotalPaid + settledAmount
		if newTotal > sale.AgreedPrice {
			return ErrOverpayment
		}
		if err := s.payments.MarkCompleted(ctx, tx, paymentID, settledAmount); err != nil {
			return err
		}
		if err := s.sales.ApplySettlement(ctx, tx, sale.ID, newTotal, sale.AgreedPrice-newTotal); err != nil {
			return err
		}
		payment.Status = models.PaymentCompleted
		payment.SettledAmount = &settledAmount
		settled = payment
		data, _ := json.Marshal(map[string]any{
			"payment_id":     paymentID,
			"settled_amount": settledAmount,
			"total_paid":     newTotal,
			"outstanding":    sale.AgreedPrice - newTotal,
			"sale_reference": sale.Reference,
		})
		return s.audit.Log(ctx, tx, actorID, "payment.settle", "payment", paymentID, string(data))
	})
	if err != nil {
		return models.Payment{}, err
	}
	s.log.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"amount":     settledAmount,
	}).Info("payment settled")
	return settled, nil
}

// FailPayment marks a PENDING payment FAILED without touching the sale
// totals. Failing an already-FAILED payment is a no-op.
func (s *PaymentService) FailPayment(ctx context.Context, actorID, paymentID, reason string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		payment, err := s.payments.GetForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentFailed {
			return nil
		}
		if payment.Status != models.PaymentPending {
			return ErrPaymentNotPending
		}
		if err := s.payments.MarkFailed(ctx, tx, paymentID, reason); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"payment_id": paymentID,
			"reason":     reason,
		})
		return s.audit.Log(ctx, tx, actorID, "payment.fail", "payment", paymentID, string(data))
	})
}
