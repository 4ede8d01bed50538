package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeReturnCreated       = "return.created"
	TypeReturnStatusChanged = "return.status_changed"
)

// ReturnEvent is published whenever a return request is created or changes status
type ReturnEvent struct {
	Type            string    `json:"type"`
	ReturnRequestID uuid.UUID `json:"return_request_id"`
	ReturnNumber    string    `json:"return_number"`
	OrderID         uuid.UUID `json:"order_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	FromStatus      string    `json:"from_status,omitempty"`
	ToStatus        string    `json:"to_status"`
	Actor           string    `json:"actor"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher delivers return lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event ReturnEvent) error
	Close() error
}

// LogPublisher only logs events; used when no broker is configured
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event ReturnEvent) error {
	p.logger.Debug("Return event",
		zap.String("type", event.Type),
		zap.String("return_number", event.ReturnNumber),
		zap.String("to_status", event.ToStatus),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
