package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

// openReturnScan bounds how many earlier returns of one order are inspected
const openReturnScan = 100

type EligibilityService struct {
	repos      *repository.Repositories
	windowDays int
	logger     *zap.Logger
	now        func() time.Time
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(repos *repository.Repositories, windowDays int, logger *zap.Logger) *EligibilityService {
	return &EligibilityService{
		repos:      repos,
		windowDays: windowDays,
		logger:     logger,
		now:        time.Now,
	}
}

// CheckEligibility decides which items of an order can still be returned
func (s *EligibilityService) CheckEligibility(ctx context.Context, orderID uuid.UUID) (*EligibilityResult, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	items, err := s.repos.Order.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order items: %w", err)
	}

	alreadyReturned, err := s.quantitiesInOpenReturns(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &EligibilityResult{
		OrderID:         orderID,
		EligibleItems:   []EligibleItem{},
		IneligibleItems: []IneligibleItem{},
		Reasons:         []string{},
	}

	if order.Status != domain.OrderStatusDelivered {
		result.Reasons = append(result.Reasons, "order has not been delivered yet")
	}
	if order.PaymentStatus != domain.PaymentStatusPaid {
		result.Reasons = append(result.Reasons, "order payment has not been completed")
	}

	if order.DeliveredAt == nil {
		if order.Status == domain.OrderStatusDelivered {
			result.Reasons = append(result.Reasons, "delivery date is not recorded")
		}
	} else {
		deadline := order.DeliveredAt.Add(time.Duration(s.windowDays) * 24 * time.Hour)
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			result.Reasons = append(result.Reasons,
				fmt.Sprintf("return window of %d days has expired", s.windowDays))
		} else {
			result.DaysRemaining = int(math.Ceil(remaining.Hours() / 24))
		}
	}

	for _, item := range items {
		if item.ItemType == domain.ItemTypeService {
			result.IneligibleItems = append(result.IneligibleItems, IneligibleItem{
				OrderItemID: item.ID,
				ProductName: item.ProductName,
				Reason:      "service items cannot be returned",
			})
			continue
		}

		returnable := item.Quantity - alreadyReturned[item.ID]
		if returnable <= 0 {
			result.IneligibleItems = append(result.IneligibleItems, IneligibleItem{
				OrderItemID: item.ID,
				ProductName: item.ProductName,
				Reason:      "item is already part of another return",
			})
			continue
		}

		result.EligibleItems = append(result.EligibleItems, EligibleItem{
			OrderItemID:        item.ID,
			ProductID:          item.ProductID,
			ProductVariantID:   item.ProductVariantID,
			ProductName:        item.ProductName,
			OrderedQuantity:    item.Quantity,
			ReturnableQuantity: returnable,
			UnitPrice:          item.UnitPrice,
		})
	}

	if len(result.EligibleItems) == 0 {
		result.Reasons = append(result.Reasons, "order has no returnable items")
	}

	result.IsEligible = len(result.Reasons) == 0
	return result, nil
}

// quantitiesInOpenReturns sums per order item what earlier, still-active returns already claim
func (s *EligibilityService) quantitiesInOpenReturns(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int, error) {
	requests, err := s.repos.ReturnRequest.List(ctx, repository.ReturnFilter{
		OrderID: &orderID,
		Limit:   openReturnScan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing returns: %w", err)
	}

	claimed := make(map[uuid.UUID]int)
	for _, req := range requests {
		if req.Status == domain.ReturnStatusCancelled || req.Status == domain.ReturnStatusRejected {
			continue
		}
		items, err := s.repos.ReturnItem.GetByReturnRequestID(ctx, req.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing return items: %w", err)
		}
		for _, item := range items {
			claimed[item.OrderItemID] += item.Quantity
		}
	}
	return claimed, nil
}
