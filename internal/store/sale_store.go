package store

import (
	"context"
	"time"

	"propsales/internal/models"
)

type SaleStore struct {
	db DB
}

func NewSaleStore(db DB) *SaleStore {
	return &SaleStore{db: db}
}

const saleColumns = `
	id, reference, unit_id, buyer_id, development_id, sale_type, status, stage,
	agreed_price, deposit_amount, total_paid, outstanding_balance,
	mortgage_required, mortgage_approved,
	contracts_sent, contracts_signed, contracts_exchanged,
	kyc_completed, aml_completed, funds_verified, customizations_locked,
	reserved_at, cancelled_reason, completed_at, created_at, updated_at
`

func (s *SaleStore) Create(ctx context.Context, tx Execer, sale models.Sale) error {
	query := `
		INSERT INTO sales (
			id, reference, unit_id, buyer_id, development_id, sale_type, status,
			agreed_price, deposit_amount, total_paid, outstanding_balance,
			mortgage_required, customizations_locked, reserved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := tx.ExecContext(ctx, query,
		sale.ID, sale.Reference, sale.UnitID, sale.BuyerID, sale.DevelopmentID,
		sale.Type, sale.Status,
		sale.AgreedPrice, sale.DepositAmount, sale.TotalPaid, sale.OutstandingBalance,
		sale.MortgageRequired, sale.CustomizationsLocked, sale.ReservedAt,
	)
	return err
}

func (s *SaleStore) GetByID(ctx context.Context, saleID string) (models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

func (s *SaleStore) GetForUpdate(ctx context.Context, tx Getter, saleID string) (models.Sale, error) {
	var sale models.Sale
	err := tx.GetContext(ctx, &sale, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, saleID)
	if err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

func (s *SaleStore) ListByBuyer(ctx context.Context, buyerID string) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// ListExpiredReserved returns sales still in RESERVED whose unit reservation
// window has passed, for the background expiry sweep.
func (s *SaleStore) ListExpiredReserved(ctx context.Context, now time.Time) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, `
		SELECT `+qualifiedSaleColumns("t")+`
		FROM sales t
		JOIN units u ON u.id = t.unit_id
		WHERE t.status = $1
		  AND u.reservation_expires_at IS NOT NULL
		  AND u.reservation_expires_at < $2
	`, models.SaleReserved, now)
	if err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *SaleStore) MarkContractsSent(ctx context.Context, tx Execer, saleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $1, contracts_sent = TRUE, updated_at = NOW()
		WHERE id = $2
	`, models.SaleContractSent, saleID)
	return err
}

func (s *SaleStore) MarkContractsSigned(ctx context.Context, tx Execer, saleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $1, contracts_signed = TRUE, updated_at = NOW()
		WHERE id = $2
	`, models.SaleContractSigned, saleID)
	return err
}

func (s *SaleStore) MarkContractsExchanged(ctx context.Context, tx Execer, saleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $1, contracts_exchanged = TRUE, updated_at = NOW()
		WHERE id = $2
	`, models.SaleContractsExchanged, saleID)
	return err
}

func (s *SaleStore) Complete(ctx context.Context, tx Execer, saleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $1, completed_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, models.SaleCompleted, saleID)
	return err
}

func (s *SaleStore) Cancel(ctx context.Context, tx Execer, saleID, reason string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = $1, cancelled_reason = $2, updated_at = NOW()
		WHERE id = $3
	`, models.SaleCancelled, reason, saleID)
	return err
}

// ApplySettlement persists the recomputed running totals after a payment
// settles. Callers must hold the sale row lock.
func (s *SaleStore) ApplySettlement(ctx context.Context, tx Execer, saleID string, totalPaid, outstanding int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET total_paid = $1, outstanding_balance = $2, updated_at = NOW()
		WHERE id = $3
	`, totalPaid, outstanding, saleID)
	return err
}

// ComplianceUpdate carries the mutable compliance flags. Nil fields are left
// untouched.
type ComplianceUpdate struct {
	MortgageApproved *bool `json:"mortgage_approved"`
	KYCCompleted     *bool `json:"kyc_completed"`
	AMLCompleted     *bool `json:"aml_completed"`
	FundsVerified    *bool `json:"funds_verified"`
}

func (s *SaleStore) UpdateCompliance(ctx context.Context, tx Execer, saleID string, update ComplianceUpdate) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET mortgage_approved = COALESCE($1, mortgage_approved),
		    kyc_completed = COALESCE($2, kyc_completed),
		    aml_completed = COALESCE($3, aml_completed),
		    funds_verified = COALESCE($4, funds_verified),
		    updated_at = NOW()
		WHERE id = $5
	`, update.MortgageApproved, update.KYCCompleted, update.AMLCompleted, update.FundsVerified, saleID)
	return err
}

func qualifiedSaleColumns(alias string) string {
	return alias + `.id, ` + alias + `.reference, ` + alias + `.unit_id, ` + alias + `.buyer_id, ` +
		alias + `.development_id, ` + alias + `.sale_type, ` + alias + `.status, ` + alias + `.stage, ` +
		alias + `.agreed_price, ` + alias + `.deposit_amount, ` + alias + `.total_paid, ` + alias + `.outstanding_balance, ` +
		alias + `.mortgage_required, ` + alias + `.mortgage_approved, ` +
		alias + `.contracts_sent, ` + alias + `.contracts_signed, ` + alias + `.contracts_exchanged, ` +
		alias + `.kyc_completed, ` + alias + `.aml_completed, ` + alias + `.funds_verified, ` + alias + `.customizations_locked, ` +
		alias + `.reserved_at, ` + alias + `.cancelled_reason, ` + alias + `.completed_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}
