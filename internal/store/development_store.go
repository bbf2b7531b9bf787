package store

import (
	"context"

	"propsales/internal/models"
)

type DevelopmentStore struct {
	db DB
}

func NewDevelopmentStore(db DB) *DevelopmentStore {
	return &DevelopmentStore{db: db}
}

func (s *DevelopmentStore) Create(ctx context.Context, tx Execer, development models.Development) error {
	query := `
		INSERT INTO developments (id, name, location)
		VALUES ($1, $2, $3)
	`
	_, err := tx.ExecContext(ctx, query, development.ID, development.Name, development.Location)
	return err
}

func (s *DevelopmentStore) GetByID(ctx context.Context, developmentID string) (models.Development, error) {
	var development models.Development
	err := s.db.GetContext(ctx, &development, `
		SELECT id, name, location, created_at
		FROM developments
		WHERE id = $1
	`, developmentID)
	if err != nil {
		return models.Development{}, err
	}
	return development, nil
}

func (s *DevelopmentStore) List(ctx context.Context) ([]models.Development, error) {
	var developments []models.Development
	err := s.db.SelectContext(ctx, &developments, `
		SELECT id, name, location, created_at
		FROM developments
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return developments, nil
}
