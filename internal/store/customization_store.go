package store

import (
	"context"

	"propsales/internal/models"
)

type CustomizationStore struct {
	db DB
}

func NewCustomizationStore(db DB) *CustomizationStore {
	return &CustomizationStore{db: db}
}

const selectionColumns = `
	id, buyer_id, unit_id, options, total_cost, status, sale_id, created_at, updated_at
`

func (s *CustomizationStore) Create(ctx context.Context, tx Execer, selection models.CustomizationSelection) error {
	query := `
		INSERT INTO customization_selections (id, buyer_id, unit_id, options, total_cost, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		selection.ID, selection.BuyerID, selection.UnitID, selection.Options, selection.TotalCost, selection.Status,
	)
	return err
}

// UpdateOptions replaces the option list and the server-recomputed total of a
// DRAFT selection. Approved selections are immutable.
func (s *CustomizationStore) UpdateOptions(ctx context.Context, tx Execer, selectionID, options string, totalCost int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE customization_selections
		SET options = $1, total_cost = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, options, totalCost, selectionID, models.SelectionDraft)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CustomizationStore) GetByID(ctx context.Context, selectionID string) (models.CustomizationSelection, error) {
	var selection models.CustomizationSelection
	err := s.db.GetContext(ctx, &selection, `
		SELECT `+selectionColumns+` FROM customization_selections WHERE id = $1
	`, selectionID)
	if err != nil {
		return models.CustomizationSelection{}, err
	}
	return selection, nil
}

func (s *CustomizationStore) GetForUpdate(ctx context.Context, tx Getter, selectionID string) (models.CustomizationSelection, error) {
	var selection models.CustomizationSelection
	err := tx.GetContext(ctx, &selection, `
		SELECT `+selectionColumns+` FROM customization_selections WHERE id = $1 FOR UPDATE
	`, selectionID)
	if err != nil {
		return models.CustomizationSelection{}, err
	}
	return selection, nil
}

// Approve locks a selection to a sale. Once APPROVED its options and total
// are frozen.
func (s *CustomizationStore) Approve(ctx context.Context, tx Execer, selectionID, saleID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE customization_selections
		SET status = $1, sale_id = $2, updated_at = NOW()
		WHERE id = $3
	`, models.SelectionApproved, saleID, selectionID)
	return err
}

func (s *CustomizationStore) ListByBuyer(ctx context.Context, buyerID string) ([]models.CustomizationSelection, error) {
	var selections []models.CustomizationSelection
	err := s.db.SelectContext(ctx, &selections, `
		SELECT `+selectionColumns+`
		FROM customization_selections
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	return selections, nil
}
