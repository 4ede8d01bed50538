package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type OperatorRepository struct {
	store *Store
}

func (r *OperatorRepository) GetByAPIKey(_ context.Context, apiKey string) (*domain.Operator, error) {
	lookup := domain.APIKeyLookup(apiKey)

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, op := range r.store.operators {
		if op.APIKeyLookup != lookup || !op.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(op.APIKeyHash), []byte(apiKey)) != nil {
			break
		}
		return &op, nil
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *OperatorRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	op, ok := r.store.operators[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "operator", ID: id.String()}
	}
	return &op, nil
}

func (r *OperatorRepository) Create(_ context.Context, op *domain.Operator) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	for _, existing := range r.store.operators {
		if existing.APIKeyLookup == op.APIKeyLookup {
			return errors.ErrDuplicate
		}
	}
	r.store.operators[op.ID] = *op
	return nil
}

type CustomerRepository struct {
	store *Store
}

func (r *CustomerRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.customers[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "customer", ID: id.String()}
	}
	return &c, nil
}

type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return &o, nil
}

func (r *OrderRepository) GetItems(_ context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.orderItems[orderID]
	out := make([]*domain.OrderItem, 0, len(rows))
	for i := range rows {
		item := rows[i]
		out = append(out, &item)
	}
	return out, nil
}

type ReturnRequestRepository struct {
	store *Store
}

func cloneRequest(req domain.ReturnRequest) *domain.ReturnRequest {
	req.ImageURLs = append([]string(nil), req.ImageURLs...)
	return &req
}

func (r *ReturnRequestRepository) Create(_ context.Context, req *domain.ReturnRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.requests[req.ID]; ok {
		return errors.ErrDuplicate
	}
	for _, existing := range r.store.requests {
		if existing.ReturnNumber == req.ReturnNumber {
			return errors.ErrDuplicate
		}
	}
	r.store.requests[req.ID] = *cloneRequest(*req)
	r.store.requestOrder = append(r.store.requestOrder, req.ID)
	return nil
}

func (r *ReturnRequestRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.ReturnRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	req, ok := r.store.requests[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "return request", ID: id.String()}
	}
	return cloneRequest(req), nil
}

func (r *ReturnRequestRepository) GetByReturnNumber(_ context.Context, returnNumber string) (*domain.ReturnRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, req := range r.store.requests {
		if req.ReturnNumber == returnNumber {
			return cloneRequest(req), nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "return request", ID: returnNumber}
}

func (r *ReturnRequestRepository) List(_ context.Context, filter repository.ReturnFilter) ([]*domain.ReturnRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []*domain.ReturnRequest
	// newest first
	for i := len(r.store.requestOrder) - 1; i >= 0; i-- {
		req, ok := r.store.requests[r.store.requestOrder[i]]
		if !ok {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && req.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.OrderID != nil && req.OrderID != *filter.OrderID {
			continue
		}
		matched = append(matched, cloneRequest(req))
	}

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *ReturnRequestRepository) Update(_ context.Context, req *domain.ReturnRequest, expected domain.ReturnStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.updateLocked(req, expected)
}

func (r *ReturnRequestRepository) updateLocked(req *domain.ReturnRequest, expected domain.ReturnStatus) error {
	current, ok := r.store.requests[req.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "return request", ID: req.ID.String()}
	}
	if current.Status != expected {
		return &errors.ErrInvalidStateTransition{From: string(expected), To: string(req.Status)}
	}
	r.store.requests[req.ID] = *cloneRequest(*req)
	return nil
}

func (r *ReturnRequestRepository) SaveInspection(
	_ context.Context,
	req *domain.ReturnRequest,
	expected domain.ReturnStatus,
	items []*domain.ReturnItem,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored := append([]domain.ReturnItem(nil), r.store.items[req.ID]...)
	for _, item := range items {
		found := false
		for i := range stored {
			if stored[i].ID == item.ID {
				stored[i] = *item
				found = true
				break
			}
		}
		if !found {
			return &errors.ErrNotFound{Resource: "return item", ID: item.ID.String()}
		}
	}

	if err := r.updateLocked(req, expected); err != nil {
		return err
	}
	r.store.items[req.ID] = stored
	return nil
}

func (r *ReturnRequestRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.requests, id)
	delete(r.store.items, id)
	delete(r.store.history, id)
	for i, existing := range r.store.requestOrder {
		if existing == id {
			r.store.requestOrder = append(r.store.requestOrder[:i], r.store.requestOrder[i+1:]...)
			break
		}
	}
	return nil
}

type ReturnItemRepository struct {
	store *Store
}

func (r *ReturnItemRepository) CreateBatch(_ context.Context, items []*domain.ReturnItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	claimed := map[uuid.UUID]int{}
	for _, item := range items {
		req, ok := r.store.requests[item.ReturnRequestID]
		if !ok {
			return &errors.ErrNotFound{Resource: "return request", ID: item.ReturnRequestID.String()}
		}
		if err := r.checkReturnable(req.OrderID, item, claimed); err != nil {
			return err
		}
	}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		r.store.items[item.ReturnRequestID] = append(r.store.items[item.ReturnRequestID], *item)
	}
	return nil
}

// checkReturnable rejects an item whose quantity, added to every open return of
// the same order line, would exceed what was ordered. Caller holds the lock.
func (r *ReturnItemRepository) checkReturnable(orderID uuid.UUID, item *domain.ReturnItem, batch map[uuid.UUID]int) error {
	ordered := 0
	for _, line := range r.store.orderItems[orderID] {
		if line.ID == item.OrderItemID {
			ordered = line.Quantity
		}
	}

	open := batch[item.OrderItemID]
	for requestID, rows := range r.store.items {
		req := r.store.requests[requestID]
		if req.OrderID != orderID || req.Status == domain.ReturnStatusCancelled || req.Status == domain.ReturnStatusRejected {
			continue
		}
		for _, row := range rows {
			if row.OrderItemID == item.OrderItemID {
				open += row.Quantity
			}
		}
	}

	if open+item.Quantity > ordered {
		return &errors.ErrValidation{
			Field:   "items",
			Message: fmt.Sprintf("order item %s: only %d of %d still returnable", item.OrderItemID, max(ordered-open, 0), ordered),
		}
	}
	batch[item.OrderItemID] += item.Quantity
	return nil
}

func (r *ReturnItemRepository) GetByReturnRequestID(_ context.Context, returnRequestID uuid.UUID) ([]*domain.ReturnItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.items[returnRequestID]
	out := make([]*domain.ReturnItem, 0, len(rows))
	for i := range rows {
		item := rows[i]
		out = append(out, &item)
	}
	return out, nil
}

type StatusHistoryRepository struct {
	store *Store
}

func (r *StatusHistoryRepository) Create(_ context.Context, entry *domain.StatusHistory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.store.history[entry.ReturnRequestID] = append(r.store.history[entry.ReturnRequestID], *entry)
	return nil
}

func (r *StatusHistoryRepository) ListByReturnRequestID(_ context.Context, returnRequestID uuid.UUID) ([]*domain.StatusHistory, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.history[returnRequestID]
	out := make([]*domain.StatusHistory, 0, len(rows))
	for i := range rows {
		entry := rows[i]
		out = append(out, &entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type RefundTransactionRepository struct {
	store *Store
}

func (r *RefundTransactionRepository) Create(_ context.Context, txn *domain.RefundTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	r.store.refunds[txn.ReturnRequestID] = append(r.store.refunds[txn.ReturnRequestID], *txn)
	return nil
}

func (r *RefundTransactionRepository) GetLatestByReturnRequestID(_ context.Context, returnRequestID uuid.UUID) (*domain.RefundTransaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := r.store.refunds[returnRequestID]
	if len(rows) == 0 {
		return nil, &errors.ErrNotFound{Resource: "refund transaction", ID: returnRequestID.String()}
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (r *RefundTransactionRepository) Update(_ context.Context, txn *domain.RefundTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rows := r.store.refunds[txn.ReturnRequestID]
	for i := range rows {
		if rows[i].ID == txn.ID {
			rows[i] = *txn
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "refund transaction", ID: txn.ID.String()}
}

type IdempotencyKeyRepository struct {
	store *Store
}

func (r *IdempotencyKeyRepository) Get(_ context.Context, key string, customerID uuid.UUID) (*domain.IdempotencyKey, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	ik, ok := r.store.idempotency[idempotencyIndex(key, customerID)]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "idempotency key", ID: key}
	}
	return &ik, nil
}

func (r *IdempotencyKeyRepository) Create(_ context.Context, ik *domain.IdempotencyKey) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	idx := idempotencyIndex(ik.Key, ik.CustomerID)
	if _, ok := r.store.idempotency[idx]; ok {
		return errors.ErrDuplicate
	}
	r.store.idempotency[idx] = *ik
	return nil
}
