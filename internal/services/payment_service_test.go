package services

import (
	"context"
	"errors"
	"testing"

	"propsales/internal/models"
)

func newTestPaymentService(payments *stubPaymentStore, sales *stubSaleStore, audit *stubAuditStore) *PaymentService {
	return NewPaymentService(&fakeTxRunner{}, payments, sales, audit, testLogger())
}

func TestSchedulePaymentsCreatesDepositAndBalance(t *testing.T) {
	payments := &stubPaymentStore{}
	svc := newTestPaymentService(payments, &stubSaleStore{}, &stubAuditStore{})

	sale := models.Sale{
		ID:            "sale-1",
		Reference:     "RES-1700000000000-ABCDEF12",
		AgreedPrice:   30045000,
		DepositAmount: 2950000,
	}
	scheduled, err := svc.SchedulePayments(context.Background(), nil, sale)
	if err != nil {
		t.Fatalf("SchedulePayments returned error: %v", err)
	}
	if len(scheduled) != 2 {
		t.Fatalf("expected 2 scheduled payments, got %d", len(scheduled))
	}
	deposit, balance := scheduled[0], scheduled[1]
	if deposit.Reference != "DEP-"+sale.Reference {
		t.Errorf("deposit reference = %q", deposit.Reference)
	}
	if balance.Reference != "BAL-"+sale.Reference {
		t.Errorf("balance reference = %q", balance.Reference)
	}
	if deposit.Amount != 2950000 {
		t.Errorf("deposit amount = %d, want 2950000", deposit.Amount)
	}
	if balance.Amount != 27095000 {
		t.Errorf("balance amount = %d, want 27095000", balance.Amount)
	}
	if deposit.Amount+balance.Amount != sale.AgreedPrice {
		t.Errorf("scheduled amounts sum to %d, want %d", deposit.Amount+balance.Amount, sale.AgreedPrice)
	}
	for _, p := range scheduled {
		if p.Status != models.PaymentPending {
			t.Errorf("payment %s status = %s, want PENDING", p.Reference, p.Status)
		}
		if p.SaleID != sale.ID {
			t.Errorf("payment %s sale_id = %s", p.Reference, p.SaleID)
		}
	}
	if len(payments.inserted) != 2 {
		t.Errorf("expected 2 inserts, got %d", len(payments.inserted))
	}
}

func TestSchedulePaymentsRejectsDepositAboveAgreed(t *testing.T) {
	svc := newTestPaymentService(&stubPaymentStore{}, &stubSaleStore{}, &stubAuditStore{})

	sale := models.Sale{ID: "sale-1", AgreedPrice: 100, DepositAmount: 101}
	if _, err := svc.SchedulePayments(context.Background(), nil, sale); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSettlePaymentCreditsSale(t *testing.T) {
	var completedAmount int64
	var appliedTotal, appliedOutstanding int64
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, SaleID: "sale-1", Amount: 2950000, Status: models.PaymentPending}, nil
		},
		markCompletedFn: func(paymentID string, settledAmount int64) error {
			completedAmount = settledAmount
			return nil
		},
	}
	sales := &stubSaleStore{
		getForUpdateFn: func(saleID string) (models.Sale, error) {
			return models.Sale{ID: saleID, Reference: "RES-X", AgreedPrice: 30045000, TotalPaid: 0}, nil
		},
		applySettlementFn: func(saleID string, totalPaid, outstanding int64) error {
			appliedTotal, appliedOutstanding = totalPaid, outstanding
			return nil
		},
	}
	audit := &stubAuditStore{}
	svc := newTestPaymentService(payments, sales, audit)

	settled, err := svc.SettlePayment(context.Background(), "developer-1", "pay-1", 2950000)
	if err != nil {
		t.Fatalf("SettlePayment returned error: %v", err)
	}
	if settled.Status != models.PaymentCompleted {
		t.Errorf("settled status = %s, want COMPLETED", settled.Status)
	}
	if settled.SettledAmount == nil || *settled.SettledAmount != 2950000 {
		t.Errorf("settled amount = %v, want 2950000", settled.SettledAmount)
	}
	if completedAmount != 2950000 {
		t.Errorf("MarkCompleted amount = %d", completedAmount)
	}
	if appliedTotal != 2950000 || appliedOutstanding != 27095000 {
		t.Errorf("ApplySettlement got total=%d outstanding=%d", appliedTotal, appliedOutstanding)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != "payment.settle" {
		t.Errorf("audit entries = %+v", audit.entries)
	}
}

func TestSettlePaymentRejectsOverpayment(t *testing.T) {
	markCompletedCalled := false
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, SaleID: "sale-1", Status: models.PaymentPending}, nil
		},
		markCompletedFn: func(string, int64) error {
			markCompletedCalled = true
			return nil
		},
	}
	sales := &stubSaleStore{
		getForUpdateFn: func(saleID string) (models.Sale, error) {
			return models.Sale{ID: saleID, AgreedPrice: 1000, TotalPaid: 900}, nil
		},
	}
	svc := newTestPaymentService(payments, sales, &stubAuditStore{})

	if _, err := svc.SettlePayment(context.Background(), "dev", "pay-1", 200); !errors.Is(err, ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}
	if markCompletedCalled {
		t.Error("MarkCompleted must not run on overpayment")
	}
}

func TestSettlePaymentRequiresPending(t *testing.T) {
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, Status: models.PaymentCompleted}, nil
		},
	}
	svc := newTestPaymentService(payments, &stubSaleStore{}, &stubAuditStore{})

	if _, err := svc.SettlePayment(context.Background(), "dev", "pay-1", 100); !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("expected ErrPaymentNotPending, got %v", err)
	}
}

func TestSettlePaymentRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestPaymentService(&stubPaymentStore{}, &stubSaleStore{}, &stubAuditStore{})

	for _, amount := range []int64{0, -1} {
		if _, err := svc.SettlePayment(context.Background(), "dev", "pay-1", amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %d: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestFailPaymentMarksFailed(t *testing.T) {
	var failedReason string
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, Status: models.PaymentPending}, nil
		},
		markFailedFn: func(paymentID, reason string) error {
			failedReason = reason
			return nil
		},
	}
	audit := &stubAuditStore{}
	svc := newTestPaymentService(payments, &stubSaleStore{}, audit)

	if err := svc.FailPayment(context.Background(), "dev", "pay-1", "card declined"); err != nil {
		t.Fatalf("FailPayment returned error: %v", err)
	}
	if failedReason != "card declined" {
		t.Errorf("MarkFailed reason = %q", failedReason)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != "payment.fail" {
		t.Errorf("audit entries = %+v", audit.entries)
	}
}

func TestFailPaymentIdempotentOnFailed(t *testing.T) {
	markFailedCalled := false
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, Status: models.PaymentFailed}, nil
		},
		markFailedFn: func(string, string) error {
			markFailedCalled = true
			return nil
		},
	}
	svc := newTestPaymentService(payments, &stubSaleStore{}, &stubAuditStore{})

	if err := svc.FailPayment(context.Background(), "dev", "pay-1", "again"); err != nil {
		t.Fatalf("failing a FAILED payment should be a no-op, got %v", err)
	}
	if markFailedCalled {
		t.Error("MarkFailed must not run for an already failed payment")
	}
}

func TestFailPaymentRejectsCompleted(t *testing.T) {
	payments := &stubPaymentStore{
		getForUpdateFn: func(paymentID string) (models.Payment, error) {
			return models.Payment{ID: paymentID, Status: models.PaymentCompleted}, nil
		},
	}
	svc := newTestPaymentService(payments, &stubSaleStore{}, &stubAuditStore{})

	if err := svc.FailPayment(context.Background(), "dev", "pay-1", "reason"); !errors.Is(err, ErrPaymentNotPending) {
		t.Fatalf("expected ErrPaymentNotPending, got %v", err)
	}
}
