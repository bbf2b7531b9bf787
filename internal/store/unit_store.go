package store

import (
	"context"
	"time"

	"propsales/internal/models"
)

type UnitStore struct {
	db DB
}

func NewUnitStore(db DB) *UnitStore {
	return &UnitStore{db: db}
}

func (s *UnitStore) Create(ctx context.Context, tx Execer, unit models.Unit) error {
	query := `
		INSERT INTO units (id, development_id, name, unit_type, base_price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, unit.ID, unit.DevelopmentID, unit.Name, unit.UnitType, unit.BasePrice, unit.Status)
	return err
}

func (s *UnitStore) GetByID(ctx context.Context, unitID string) (models.Unit, error) {
	var unit models.Unit
	err := s.db.GetContext(ctx, &unit, `
		SELECT id, development_id, name, unit_type, base_price, status, reservation_expires_at, created_at, updated_at
		FROM units
		WHERE id = $1
	`, unitID)
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

func (s *UnitStore) Get(ctx context.Context, q Getter, unitID string) (models.Unit, error) {
	var unit models.Unit
	err := q.GetContext(ctx, &unit, `
		SELECT id, development_id, name, unit_type, base_price, status, reservation_expires_at, created_at, updated_at
		FROM units
		WHERE id = $1
	`, unitID)
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

func (s *UnitStore) GetForUpdate(ctx context.Context, tx Getter, unitID string) (models.Unit, error) {
	var unit models.Unit
	err := tx.GetContext(ctx, &unit, `
		SELECT id, development_id, name, unit_type, base_price, status, reservation_expires_at, created_at, updated_at
		FROM units
		WHERE id = $1
		FOR UPDATE
	`, unitID)
	if err != nil {
		return models.Unit{}, err
	}
	return unit, nil
}

func (s *UnitStore) ListByDevelopment(ctx context.Context, developmentID string) ([]models.Unit, error) {
	var units []models.Unit
	err := s.db.SelectContext(ctx, &units, `
		SELECT id, development_id, name, unit_type, base_price, status, reservation_expires_at, created_at, updated_at
		FROM units
		WHERE development_id = $1
		ORDER BY name
	`, developmentID)
	if err != nil {
		return nil, err
	}
	return units, nil
}

// ReserveIfAvailable flips an AVAILABLE unit to RESERVED in a single
// conditional update. A zero row count means the unit was not available and
// the caller lost the race; nothing was written.
func (s *UnitStore) ReserveIfAvailable(ctx context.Context, tx Execer, unitID string, expiresAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE units
		SET status = $1, reservation_expires_at = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, models.UnitReserved, expiresAt, unitID, models.UnitAvailable)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetStatus moves a unit to status and clears or sets its reservation expiry.
func (s *UnitStore) SetStatus(ctx context.Context, tx Execer, unitID string, status models.UnitStatus, expiresAt *time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE units
		SET status = $1, reservation_expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, status, expiresAt, unitID)
	return err
}
