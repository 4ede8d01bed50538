package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

type InspectionService struct {
	repos     *repository.Repositories
	lifecycle *lifecycle
	validate  *validator.Validate
	logger    *zap.Logger
}

// newInspectionService creates a new inspection service
func newInspectionService(repos *repository.Repositories, lc *lifecycle, logger *zap.Logger) *InspectionService {
	return &InspectionService{
		repos:     repos,
		lifecycle: lc,
		validate:  newValidator(),
		logger:    logger,
	}
}

// evaluation is the outcome of applying inspection verdicts to a return's items
type evaluation struct {
	items            []*domain.ReturnItem
	calculation      domain.RefundCalculation
	status           domain.ReturnStatus
	inspectionStatus domain.InspectionStatus
}

// CompleteInspection records per-item conditions, computes the refund and decides the return.
// The request and all items are written in one transaction.
func (s *InspectionService) CompleteInspection(
	ctx context.Context,
	id uuid.UUID,
	input CompleteInspectionRequest,
	inspector string,
) (*domain.ReturnRequestWithItems, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireInspectable(req); err != nil {
		return nil, err
	}

	eval, err := s.evaluate(ctx, req, input.Items)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if err := domain.Transition(from, eval.status); err != nil {
		return nil, err
	}

	now := s.lifecycle.now().UTC()
	for _, item := range eval.items {
		item.UpdatedAt = now
	}

	calculated := eval.calculation.ApprovedAmount
	final := eval.calculation.ApprovedAmount
	deduction := eval.calculation.DeductionAmount

	updated := *req
	updated.Status = eval.status
	updated.CalculatedRefundAmount = &calculated
	updated.DeductionAmount = &deduction
	updated.FinalRefundAmount = &final
	updated.InspectedBy = &inspector
	updated.InspectionDate = &now
	updated.InspectionStatus = &eval.inspectionStatus
	updated.InspectionNotes = stringRef(input.InspectionNotes)
	updated.DecisionBy = &inspector
	updated.DecisionDate = &now
	updated.UpdatedAt = now

	if err := s.repos.ReturnRequest.SaveInspection(ctx, &updated, from, eval.items); err != nil {
		s.logger.Error("Failed to save inspection",
			zap.String("return_number", req.ReturnNumber),
			zap.Error(err),
		)
		return nil, err
	}

	s.lifecycle.recordStatusChange(ctx, &updated, &from, inspector, stringRef(fmt.Sprintf(
		"inspection %s, refund %s of %s",
		eval.inspectionStatus,
		eval.calculation.ApprovedAmount.StringFixed(2),
		eval.calculation.OriginalAmount.StringFixed(2),
	)))

	s.logger.Info("Inspection completed",
		zap.String("return_number", req.ReturnNumber),
		zap.String("status", string(eval.status)),
		zap.String("refund_amount", eval.calculation.ApprovedAmount.StringFixed(2)),
	)

	return &domain.ReturnRequestWithItems{ReturnRequest: updated, Items: eval.items}, nil
}

// PreviewRefund runs the same calculation as CompleteInspection without writing anything
func (s *InspectionService) PreviewRefund(ctx context.Context, id uuid.UUID, input PreviewRefundRequest) (*RefundPreview, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireInspectable(req); err != nil {
		return nil, err
	}

	eval, err := s.evaluate(ctx, req, input.Items)
	if err != nil {
		return nil, err
	}

	preview := &RefundPreview{
		Items:            make([]RefundPreviewItem, 0, len(eval.items)),
		OriginalAmount:   eval.calculation.OriginalAmount,
		DeductionAmount:  eval.calculation.DeductionAmount,
		RefundAmount:     eval.calculation.ApprovedAmount,
		Status:           eval.status,
		InspectionStatus: eval.inspectionStatus,
	}
	for i, item := range eval.items {
		line := eval.calculation.Items[i]
		preview.Items = append(preview.Items, RefundPreviewItem{
			ItemID:              item.ID,
			ProductName:         item.ProductName,
			Condition:           line.ItemCondition,
			TotalPrice:          line.TotalPrice,
			DeductionPercentage: line.DeductionPercentage,
			DeductionAmount:     line.DeductionAmount,
			ApprovedAmount:      line.ApprovedAmount,
		})
	}
	return preview, nil
}

func requireInspectable(req *domain.ReturnRequest) error {
	if req.Status != domain.ReturnStatusReceived && req.Status != domain.ReturnStatusUnderInspection {
		return &errors.ErrInvalidStateTransition{From: string(req.Status), To: string(domain.ReturnStatusUnderInspection)}
	}
	return nil
}

// evaluate checks that every item of the return has exactly one verdict and prices it
func (s *InspectionService) evaluate(ctx context.Context, req *domain.ReturnRequest, verdicts []ItemInspection) (*evaluation, error) {
	stored, err := s.repos.ReturnItem.GetByReturnRequestID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, &errors.ErrValidation{Field: "items", Message: "return request has no items"}
	}

	byID := make(map[uuid.UUID]ItemInspection, len(verdicts))
	for i, v := range verdicts {
		if _, dup := byID[v.ItemID]; dup {
			return nil, &errors.ErrValidation{Field: fmt.Sprintf("items[%d]", i), Message: "item inspected more than once"}
		}
		if !v.Condition.IsValid() {
			return nil, &errors.ErrValidation{
				Field:   fmt.Sprintf("items[%d].item_condition", i),
				Message: fmt.Sprintf("unknown condition %q", v.Condition),
			}
		}
		byID[v.ItemID] = v
	}

	eval := &evaluation{items: make([]*domain.ReturnItem, 0, len(stored))}
	lines := make([]domain.ItemRefund, 0, len(stored))
	conditions := make([]domain.ItemCondition, 0, len(stored))

	for _, item := range stored {
		verdict, ok := byID[item.ID]
		if !ok {
			return nil, &errors.ErrValidation{
				Field:   "items",
				Message: fmt.Sprintf("item %s (%s) was not inspected", item.ID, item.ProductName),
			}
		}
		delete(byID, item.ID)

		line, err := domain.CalculateItemRefund(item.TotalPrice, verdict.Condition)
		if err != nil {
			return nil, err
		}

		inspected := *item
		inspected.ConditionOnReturn = &line.ItemCondition
		inspected.ConditionNotes = verdict.InspectionNotes
		inspected.QualityIssueDescription = verdict.QualityIssueDescription
		inspected.DeductionPercentage = &line.DeductionPercentage
		inspected.DeductionAmount = &line.DeductionAmount
		inspected.ApprovedAmount = &line.ApprovedAmount
		inspected.DeductionReason = stringRef(domain.DeductionReason(verdict.Condition))

		eval.items = append(eval.items, &inspected)
		lines = append(lines, line)
		conditions = append(conditions, verdict.Condition)
	}

	if len(byID) > 0 {
		unknown := make([]string, 0, len(byID))
		for itemID := range byID {
			unknown = append(unknown, itemID.String())
		}
		sort.Strings(unknown)
		return nil, &errors.ErrValidation{
			Field:   "items",
			Message: fmt.Sprintf("items do not belong to this return: %s", strings.Join(unknown, ", ")),
		}
	}

	eval.calculation = domain.CalculateRefund(lines)
	eval.status = domain.DeriveReturnStatus(conditions)
	eval.inspectionStatus = domain.DeriveInspectionStatus(conditions, eval.calculation.DeductionAmount)
	return eval, nil
}
