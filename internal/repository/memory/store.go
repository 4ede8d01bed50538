// Package memory holds map-backed repositories for local runs and tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
)

// Store is the shared state behind every in-memory repository.
// A single lock keeps multi-table writes such as SaveInspection atomic.
type Store struct {
	mu sync.RWMutex

	operators    map[uuid.UUID]domain.Operator
	customers    map[uuid.UUID]domain.Customer
	orders       map[uuid.UUID]domain.Order
	orderItems   map[uuid.UUID][]domain.OrderItem
	requests     map[uuid.UUID]domain.ReturnRequest
	requestOrder []uuid.UUID
	items        map[uuid.UUID][]domain.ReturnItem
	history      map[uuid.UUID][]domain.StatusHistory
	refunds      map[uuid.UUID][]domain.RefundTransaction
	idempotency  map[string]domain.IdempotencyKey
}

func NewStore() *Store {
	return &Store{
		operators:   map[uuid.UUID]domain.Operator{},
		customers:   map[uuid.UUID]domain.Customer{},
		orders:      map[uuid.UUID]domain.Order{},
		orderItems:  map[uuid.UUID][]domain.OrderItem{},
		requests:    map[uuid.UUID]domain.ReturnRequest{},
		items:       map[uuid.UUID][]domain.ReturnItem{},
		history:     map[uuid.UUID][]domain.StatusHistory{},
		refunds:     map[uuid.UUID][]domain.RefundTransaction{},
		idempotency: map[string]domain.IdempotencyKey{},
	}
}

// NewRepositories wires every in-memory repository onto one store
func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		Operator:          &OperatorRepository{store: store},
		Customer:          &CustomerRepository{store: store},
		Order:             &OrderRepository{store: store},
		ReturnRequest:     &ReturnRequestRepository{store: store},
		ReturnItem:        &ReturnItemRepository{store: store},
		StatusHistory:     &StatusHistoryRepository{store: store},
		RefundTransaction: &RefundTransactionRepository{store: store},
		IdempotencyKey:    &IdempotencyKeyRepository{store: store},
	}
}

// PutCustomer inserts or replaces a customer
func (s *Store) PutCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// PutOrder inserts or replaces an order together with its line items
func (s *Store) PutOrder(o domain.Order, items []domain.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.orderItems[o.ID] = append([]domain.OrderItem(nil), items...)
}

func idempotencyIndex(key string, customerID uuid.UUID) string {
	return customerID.String() + "|" + key
}
