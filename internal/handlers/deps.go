package handlers

import (
	"context"

	"propsales/internal/models"
	"propsales/internal/services"
	"propsales/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type DevelopmentStore interface {
	Create(ctx context.Context, tx store.Execer, development models.Development) error
	GetByID(ctx context.Context, developmentID string) (models.Development, error)
	List(ctx context.Context) ([]models.Development, error)
}

type UnitStore interface {
	Create(ctx context.Context, tx store.Execer, unit models.Unit) error
	GetByID(ctx context.Context, unitID string) (models.Unit, error)
	ListByDevelopment(ctx context.Context, developmentID string) ([]models.Unit, error)
}

type CustomizationStore interface {
	Create(ctx context.Context, tx store.Execer, selection models.CustomizationSelection) error
	UpdateOptions(ctx context.Context, tx store.Execer, selectionID, options string, totalCost int64) (int64, error)
	GetByID(ctx context.Context, selectionID string) (models.CustomizationSelection, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.CustomizationSelection, error)
}

type SaleStore interface {
	GetByID(ctx context.Context, saleID string) (models.Sale, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Sale, error)
}

type PaymentStore interface {
	GetByID(ctx context.Context, paymentID string) (models.Payment, error)
	ListBySale(ctx context.Context, saleID string) ([]models.Payment, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error)
}

type ReservationService interface {
	Reserve(ctx context.Context, req services.ReserveRequest) (models.Sale, error)
	SendContracts(ctx context.Context, actorID, saleID string) (models.Sale, error)
	SignContracts(ctx context.Context, actorID, saleID string) (models.Sale, error)
	ExchangeContracts(ctx context.Context, actorID, saleID string) (models.Sale, error)
	Complete(ctx context.Context, actorID, saleID string) (models.Sale, error)
	Cancel(ctx context.Context, actorID, saleID, reason string) (models.Sale, error)
	UpdateCompliance(ctx context.Context, actorID, saleID string, update store.ComplianceUpdate) (models.Sale, error)
}

type PaymentService interface {
	SettlePayment(ctx context.Context, actorID, paymentID string, settledAmount int64) (models.Payment, error)
	FailPayment(ctx context.Context, actorID, paymentID, reason string) error
}
