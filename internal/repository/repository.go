package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jafarshop/returnsapi/internal/domain"
)

// Repositories groups every store the services depend on
type Repositories struct {
	Operator          OperatorRepository
	Customer          CustomerRepository
	Order             OrderRepository
	ReturnRequest     ReturnRequestRepository
	ReturnItem        ReturnItemRepository
	StatusHistory     StatusHistoryRepository
	RefundTransaction RefundTransactionRepository
	IdempotencyKey    IdempotencyKeyRepository
}

type OperatorRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	Create(ctx context.Context, operator *domain.Operator) error
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
}

type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error)
}

// ReturnFilter narrows a return request listing
type ReturnFilter struct {
	Status     *domain.ReturnStatus
	CustomerID *uuid.UUID
	OrderID    *uuid.UUID
	Limit      int
	Offset     int
}

type ReturnRequestRepository interface {
	Create(ctx context.Context, req *domain.ReturnRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReturnRequest, error)
	GetByReturnNumber(ctx context.Context, returnNumber string) (*domain.ReturnRequest, error)
	List(ctx context.Context, filter ReturnFilter) ([]*domain.ReturnRequest, error)
	// Update persists the request only if its stored status still equals expected
	Update(ctx context.Context, req *domain.ReturnRequest, expected domain.ReturnStatus) error
	// SaveInspection writes the request and all inspected items atomically
	SaveInspection(ctx context.Context, req *domain.ReturnRequest, expected domain.ReturnStatus, items []*domain.ReturnItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ReturnItemRepository interface {
	CreateBatch(ctx context.Context, items []*domain.ReturnItem) error
	GetByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) ([]*domain.ReturnItem, error)
}

type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *domain.StatusHistory) error
	ListByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) ([]*domain.StatusHistory, error)
}

type RefundTransactionRepository interface {
	Create(ctx context.Context, txn *domain.RefundTransaction) error
	GetLatestByReturnRequestID(ctx context.Context, returnRequestID uuid.UUID) (*domain.RefundTransaction, error)
	Update(ctx context.Context, txn *domain.RefundTransaction) error
}

type IdempotencyKeyRepository interface {
	Get(ctx context.Context, key string, customerID uuid.UUID) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, key *domain.IdempotencyKey) error
}
