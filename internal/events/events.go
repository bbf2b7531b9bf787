package events

import (
	"context"
	"time"

	"propsales/internal/models"

	"github.com/sirupsen/logrus"
)

// StatusChanged is emitted after every committed sale transition. Consumers
// drive buyer and solicitor notifications from it.
type StatusChanged struct {
	SaleID     string            `json:"sale_id"`
	Reference  string            `json:"reference"`
	FromStatus models.SaleStatus `json:"from_status"`
	ToStatus   models.SaleStatus `json:"to_status"`
	Timestamp  time.Time         `json:"timestamp"`
}

// CaseOpenRequested is emitted once, after a successful reservation. The
// case-management collaborator owns all downstream legal-case behaviour.
type CaseOpenRequested struct {
	SaleID        string    `json:"sale_id"`
	Reference     string    `json:"reference"`
	UnitID        string    `json:"unit_id"`
	DevelopmentID string    `json:"development_id"`
	AgreedPrice   int64     `json:"agreed_price"`
	BuyerID       string    `json:"buyer_id"`
	BuyerName     string    `json:"buyer_name"`
	BuyerEmail    string    `json:"buyer_email"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher delivers events to external collaborators. Publishing is
// fire-and-forget: implementations must not block state transitions and
// failures must not roll them back.
type Publisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChanged)
	PublishCaseOpenRequested(ctx context.Context, event CaseOpenRequested)
}

// LogPublisher writes events to the structured log. It stands in for the
// notification and case-management collaborators in deployments without a
// message broker.
type LogPublisher struct {
	log *logrus.Logger
}

func NewLogPublisher(log *logrus.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishStatusChanged(_ context.Context, event StatusChanged) {
	p.log.WithFields(logrus.Fields{
		"sale_id":     event.SaleID,
		"reference":   event.Reference,
		"from_status": event.FromStatus,
		"to_status":   event.ToStatus,
	}).Info("sale status changed")
}

func (p *LogPublisher) PublishCaseOpenRequested(_ context.Context, event CaseOpenRequested) {
	p.log.WithFields(logrus.Fields{
		"sale_id":   event.SaleID,
		"reference": event.Reference,
		"buyer_id":  event.BuyerID,
	}).Info("solicitor case requested")
}
