package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// attempts at inserting a request before giving up on number collisions
	returnNumberAttempts = 3
)

type ReturnService struct {
	repos       *repository.Repositories
	eligibility *EligibilityService
	lifecycle   *lifecycle
	validate    *validator.Validate
	logger      *zap.Logger
}

// newReturnService creates a new return service
func newReturnService(
	repos *repository.Repositories,
	eligibility *EligibilityService,
	lc *lifecycle,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		repos:       repos,
		eligibility: eligibility,
		lifecycle:   lc,
		validate:    newValidator(),
		logger:      logger,
	}
}

// CustomerActor is how customers appear in the status history
func CustomerActor(customerID uuid.UUID) string {
	return "customer:" + customerID.String()
}

// CreateReturnRequest opens a return against a delivered order
func (s *ReturnService) CreateReturnRequest(ctx context.Context, input CreateReturnRequest) (*domain.ReturnRequestWithItems, error) {
	if input.CustomerID == uuid.Nil {
		return nil, &errors.ErrUnauthorized{Message: "customer identity is required"}
	}
	if input.RequestType == "" {
		input.RequestType = domain.ReturnTypeRefund
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	if !input.Reason.IsValid() {
		return nil, &errors.ErrValidation{Field: "reason", Message: fmt.Sprintf("unknown reason %q", input.Reason)}
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, &errors.ErrValidation{Field: "description", Message: "is required"}
	}

	requestHash := ""
	if input.IdempotencyKey != "" {
		requestHash = hashRequest(input)
		existing, err := s.replay(ctx, input, requestHash)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	order, err := s.repos.Order.GetByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != input.CustomerID {
		return nil, &errors.ErrForbidden{Message: "order belongs to another customer"}
	}

	eligibility, err := s.eligibility.CheckEligibility(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if !eligibility.IsEligible {
		return nil, &errors.ErrValidation{Field: "order_id", Message: strings.Join(eligibility.Reasons, "; ")}
	}

	items, err := s.buildItems(ctx, input, eligibility)
	if err != nil {
		return nil, err
	}

	now := s.lifecycle.now().UTC()
	req := &domain.ReturnRequest{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		CustomerID:          input.CustomerID,
		RequestType:         input.RequestType,
		Reason:              input.Reason,
		Description:         strings.TrimSpace(input.Description),
		PickupAddress:       strings.TrimSpace(input.PickupAddress),
		ImageURLs:           input.ImageURLs,
		VideoURL:            input.VideoURL,
		Status:              domain.ReturnStatusPendingShipment,
		OriginalOrderAmount: order.TotalAmount,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if req.ImageURLs == nil {
		req.ImageURLs = []string{}
	}

	if err := s.insertRequest(ctx, req); err != nil {
		return nil, err
	}

	for _, item := range items {
		item.ReturnRequestID = req.ID
		item.CreatedAt = now
		item.UpdatedAt = now
	}
	if err := s.repos.ReturnItem.CreateBatch(ctx, items); err != nil {
		s.logger.Error("Failed to create return items, removing request",
			zap.String("return_number", req.ReturnNumber),
			zap.Error(err),
		)
		if delErr := s.repos.ReturnRequest.Delete(ctx, req.ID); delErr != nil {
			s.logger.Error("Failed to remove orphaned return request",
				zap.String("return_number", req.ReturnNumber),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to create return items: %w", err)
	}

	if input.IdempotencyKey != "" {
		winner, err := s.rememberKey(ctx, input, requestHash, req)
		if err != nil || winner != nil {
			return winner, err
		}
	}

	s.lifecycle.recordStatusChange(ctx, req, nil, CustomerActor(input.CustomerID), stringRef("return request created"))

	s.logger.Info("Return request created",
		zap.String("return_number", req.ReturnNumber),
		zap.String("order_id", order.ID.String()),
		zap.Int("items", len(items)),
	)

	return &domain.ReturnRequestWithItems{ReturnRequest: *req, Items: items}, nil
}

func (s *ReturnService) buildItems(ctx context.Context, input CreateReturnRequest, eligibility *EligibilityResult) ([]*domain.ReturnItem, error) {
	eligible := make(map[uuid.UUID]EligibleItem, len(eligibility.EligibleItems))
	for _, item := range eligibility.EligibleItems {
		eligible[item.OrderItemID] = item
	}
	ineligible := make(map[uuid.UUID]IneligibleItem, len(eligibility.IneligibleItems))
	for _, item := range eligibility.IneligibleItems {
		ineligible[item.OrderItemID] = item
	}

	seen := make(map[uuid.UUID]bool, len(input.Items))
	items := make([]*domain.ReturnItem, 0, len(input.Items))
	for i, selected := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if seen[selected.OrderItemID] {
			return nil, &errors.ErrValidation{Field: field, Message: "item selected more than once"}
		}
		seen[selected.OrderItemID] = true

		if bad, ok := ineligible[selected.OrderItemID]; ok {
			return nil, &errors.ErrValidation{Field: field, Message: bad.Reason}
		}
		orderItem, ok := eligible[selected.OrderItemID]
		if !ok {
			return nil, &errors.ErrValidation{Field: field, Message: "item does not belong to this order"}
		}
		if selected.Quantity > orderItem.ReturnableQuantity {
			return nil, &errors.ErrValidation{
				Field:   field + ".quantity",
				Message: fmt.Sprintf("cannot return %d, only %d returnable", selected.Quantity, orderItem.ReturnableQuantity),
			}
		}

		items = append(items, &domain.ReturnItem{
			ID:               uuid.New(),
			OrderItemID:      orderItem.OrderItemID,
			ProductID:        orderItem.ProductID,
			ProductVariantID: orderItem.ProductVariantID,
			ProductName:      orderItem.ProductName,
			Quantity:         selected.Quantity,
			UnitPrice:        orderItem.UnitPrice,
			TotalPrice:       orderItem.UnitPrice.Mul(decimal.NewFromInt(int64(selected.Quantity))).Round(2),
		})
	}
	return items, nil
}

// insertRequest retries with a fresh number when the generated one already exists
func (s *ReturnService) insertRequest(ctx context.Context, req *domain.ReturnRequest) error {
	var err error
	for attempt := 0; attempt < returnNumberAttempts; attempt++ {
		req.ReturnNumber = domain.NewReturnNumber(s.lifecycle.now())
		err = s.repos.ReturnRequest.Create(ctx, req)
		if !errors.Is(err, errors.ErrDuplicate) {
			break
		}
		s.logger.Warn("Return number collision, retrying", zap.String("return_number", req.ReturnNumber))
	}
	if err != nil {
		return fmt.Errorf("failed to create return request: %w", err)
	}
	return nil
}

func hashRequest(input CreateReturnRequest) string {
	body, _ := json.Marshal(input)
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// replay returns the request an idempotency key already produced, if any
func (s *ReturnService) replay(ctx context.Context, input CreateReturnRequest, requestHash string) (*domain.ReturnRequestWithItems, error) {
	key, err := s.repos.IdempotencyKey.Get(ctx, input.IdempotencyKey, input.CustomerID)
	if errors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if key.RequestHash != requestHash {
		return nil, fmt.Errorf("%w: idempotency key was used with a different request", errors.ErrDuplicate)
	}
	return s.GetReturnRequest(ctx, key.ReturnRequestID)
}

// rememberKey stores the key. If a concurrent call stored it first, the request just
// created is removed and the earlier one returned.
func (s *ReturnService) rememberKey(
	ctx context.Context,
	input CreateReturnRequest,
	requestHash string,
	req *domain.ReturnRequest,
) (*domain.ReturnRequestWithItems, error) {
	err := s.repos.IdempotencyKey.Create(ctx, &domain.IdempotencyKey{
		Key:             input.IdempotencyKey,
		CustomerID:      input.CustomerID,
		ReturnRequestID: req.ID,
		RequestHash:     requestHash,
		CreatedAt:       req.CreatedAt,
	})
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, errors.ErrDuplicate) {
		s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		return nil, nil
	}

	if delErr := s.repos.ReturnRequest.Delete(ctx, req.ID); delErr != nil {
		s.logger.Error("Failed to remove duplicate return request", zap.Error(delErr))
	}
	return s.replay(ctx, input, requestHash)
}

// UpdateReturnAddress sets where the customer must ship the return
func (s *ReturnService) UpdateReturnAddress(ctx context.Context, id uuid.UUID, input ReturnAddressRequest, actor string) (*domain.ReturnRequest, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	address := input.toDomain()
	if !address.IsSet() {
		return nil, &errors.ErrValidation{Field: "return_address", Message: "line1, city, state, postal_code and country are required"}
	}

	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.ReturnStatusPendingShipment {
		return nil, &errors.ErrInvalidStateTransition{From: string(req.Status), To: string(domain.ReturnStatusPendingShipment)}
	}

	updated := *req
	updated.ReturnAddress = address
	updated.UpdatedAt = s.lifecycle.now().UTC()
	if err := s.repos.ReturnRequest.Update(ctx, &updated, req.Status); err != nil {
		return nil, err
	}

	s.lifecycle.writeHistory(ctx, &updated, &req.Status, actor, stringRef("return address updated"))
	return &updated, nil
}

// MarkAsShipped records the customer's courier details
func (s *ReturnService) MarkAsShipped(ctx context.Context, id, customerID uuid.UUID, input ShipReturnRequest) (*domain.ReturnRequest, error) {
	input.TrackingNumber = strings.TrimSpace(input.TrackingNumber)
	input.CourierName = strings.TrimSpace(input.CourierName)
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	req, err := s.getOwned(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(req.Status, domain.ReturnStatusShippedByCustomer); err != nil {
		return nil, err
	}
	if !req.ReturnAddress.IsSet() {
		return nil, &errors.ErrValidation{Field: "return_address", Message: "return address has not been provided yet"}
	}

	err = s.lifecycle.transition(ctx, req, domain.ReturnStatusShippedByCustomer, CustomerActor(customerID),
		stringRef(fmt.Sprintf("shipped via %s, tracking %s", input.CourierName, input.TrackingNumber)),
		func(r *domain.ReturnRequest, now time.Time) {
			r.CustomerTrackingNumber = &input.TrackingNumber
			r.CustomerCourierName = &input.CourierName
			r.CustomerShippedDate = &now
		})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// CancelReturnRequest lets the owner withdraw a return before it is received
func (s *ReturnService) CancelReturnRequest(ctx context.Context, id, customerID uuid.UUID, reason string) (*domain.ReturnRequest, error) {
	req, err := s.getOwned(ctx, id, customerID)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	err = s.lifecycle.transition(ctx, req, domain.ReturnStatusCancelled, CustomerActor(customerID), stringRef(reason),
		func(r *domain.ReturnRequest, _ time.Time) {
			r.CancellationReason = stringRef(reason)
		})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// MarkAsReceived records that the warehouse got the package
func (s *ReturnService) MarkAsReceived(ctx context.Context, id uuid.UUID, receivedBy string) (*domain.ReturnRequest, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.lifecycle.transition(ctx, req, domain.ReturnStatusReceived, receivedBy, nil,
		func(r *domain.ReturnRequest, now time.Time) {
			r.ReceivedBy = &receivedBy
			r.ReceivedDate = &now
		})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// StartInspection claims a received return for inspection
func (s *ReturnService) StartInspection(ctx context.Context, id uuid.UUID, inspector string) (*domain.ReturnRequest, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.lifecycle.transition(ctx, req, domain.ReturnStatusUnderInspection, inspector, nil,
		func(r *domain.ReturnRequest, _ time.Time) {
			r.InspectedBy = &inspector
		})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// AddAdminNote appends an internal note without changing status
func (s *ReturnService) AddAdminNote(ctx context.Context, id uuid.UUID, input AdminNoteRequest, actor string) (*domain.ReturnRequest, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, &errors.ErrValidation{Field: "note", Message: "is required"}
	}

	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.lifecycle.now().UTC()
	line := fmt.Sprintf("[%s %s] %s", now.Format(time.RFC3339), actor, note)
	updated := *req
	if req.AdminNotes != nil && *req.AdminNotes != "" {
		line = *req.AdminNotes + "\n" + line
	}
	updated.AdminNotes = &line
	updated.UpdatedAt = now

	if err := s.repos.ReturnRequest.Update(ctx, &updated, req.Status); err != nil {
		return nil, err
	}

	s.lifecycle.writeHistory(ctx, &updated, &req.Status, actor, &note)
	return &updated, nil
}

// GetReturnRequest loads a request with its items
func (s *ReturnService) GetReturnRequest(ctx context.Context, id uuid.UUID) (*domain.ReturnRequestWithItems, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, req)
}

// GetForCustomer loads a request only if the caller owns it
func (s *ReturnService) GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*domain.ReturnRequestWithItems, error) {
	req, err := s.getOwned(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, req)
}

func (s *ReturnService) GetByReturnNumber(ctx context.Context, returnNumber string) (*domain.ReturnRequestWithItems, error) {
	req, err := s.repos.ReturnRequest.GetByReturnNumber(ctx, returnNumber)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, req)
}

func (s *ReturnService) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*domain.ReturnRequest, error) {
	return s.ListReturns(ctx, repository.ReturnFilter{CustomerID: &customerID, Limit: limit, Offset: offset})
}

// ListReturns lists requests newest first
func (s *ReturnService) ListReturns(ctx context.Context, filter repository.ReturnFilter) ([]*domain.ReturnRequest, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, &errors.ErrValidation{Field: "status", Message: fmt.Sprintf("unknown status %q", *filter.Status)}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	requests, err := s.repos.ReturnRequest.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []*domain.ReturnRequest{}
	}
	return requests, nil
}

func (s *ReturnService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]*domain.StatusHistory, error) {
	if _, err := s.repos.ReturnRequest.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.StatusHistory.ListByReturnRequestID(ctx, id)
}

func (s *ReturnService) getOwned(ctx context.Context, id, customerID uuid.UUID) (*domain.ReturnRequest, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, &errors.ErrForbidden{Message: "return request belongs to another customer"}
	}
	return req, nil
}

func (s *ReturnService) withItems(ctx context.Context, req *domain.ReturnRequest) (*domain.ReturnRequestWithItems, error) {
	items, err := s.repos.ReturnItem.GetByReturnRequestID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &domain.ReturnRequestWithItems{ReturnRequest: *req, Items: items}, nil
}
