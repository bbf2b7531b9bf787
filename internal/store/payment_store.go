package store

import (
	"context"

	"propsales/internal/models"
)

type PaymentStore struct {
	db DB
}

func NewPaymentStore(db DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentColumns = `
	id, sale_id, reference, amount, settled_amount, status, method, failure_reason, created_at, updated_at
`

func (s *PaymentStore) Insert(ctx context.Context, tx Execer, payment models.Payment) error {
	query := `
		INSERT INTO payments (id, sale_id, reference, amount, status, method)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		payment.ID, payment.SaleID, payment.Reference, payment.Amount, payment.Status, payment.Method,
	)
	return err
}

func (s *PaymentStore) GetByID(ctx context.Context, paymentID string) (models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentStore) GetForUpdate(ctx context.Context, tx Getter, paymentID string) (models.Payment, error) {
	var payment models.Payment
	err := tx.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
	if err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentStore) GetByReference(ctx context.Context, q Getter, reference string) (models.Payment, error) {
	var payment models.Payment
	err := q.GetContext(ctx, &payment, `SELECT `+paymentColumns+` FROM payments WHERE reference = $1`, reference)
	if err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

func (s *PaymentStore) ListBySale(ctx context.Context, saleID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE sale_id = $1
		ORDER BY created_at
	`, saleID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *PaymentStore) MarkCompleted(ctx context.Context, tx Execer, paymentID string, settledAmount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, settled_amount = $2, updated_at = NOW()
		WHERE id = $3
	`, models.PaymentCompleted, settledAmount, paymentID)
	return err
}

func (s *PaymentStore) MarkFailed(ctx context.Context, tx Execer, paymentID, reason string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, failure_reason = $2, updated_at = NOW()
		WHERE id = $3
	`, models.PaymentFailed, reason, paymentID)
	return err
}

// FailPendingBySale marks every PENDING payment of a sale FAILED, returning
// how many were touched. Used on cancellation.
func (s *PaymentStore) FailPendingBySale(ctx context.Context, tx Execer, saleID, reason string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, failure_reason = $2, updated_at = NOW()
		WHERE sale_id = $3 AND status = $4
	`, models.PaymentFailed, reason, saleID, models.PaymentPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
