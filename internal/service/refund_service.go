package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/razorpay"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

// RefundGateway issues refunds against captured payments
type RefundGateway interface {
	RefundPayment(ctx context.Context, paymentID string, req razorpay.RefundRequest) (*razorpay.Refund, error)
}

type RefundService struct {
	repos     *repository.Repositories
	gateway   RefundGateway
	lifecycle *lifecycle
	validate  *validator.Validate
	logger    *zap.Logger
}

// newRefundService creates a new refund service
func newRefundService(repos *repository.Repositories, gateway RefundGateway, lc *lifecycle, logger *zap.Logger) *RefundService {
	return &RefundService{
		repos:     repos,
		gateway:   gateway,
		lifecycle: lc,
		validate:  newValidator(),
		logger:    logger,
	}
}

// InitiateRefund sends the refund to the gateway and moves the return to refund_initiated.
// A gateway failure leaves the return untouched.
func (s *RefundService) InitiateRefund(
	ctx context.Context,
	id uuid.UUID,
	input InitiateRefundRequest,
	initiatedBy string,
) (*domain.RefundTransaction, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(req.Status, domain.ReturnStatusRefundInitiated); err != nil {
		return nil, err
	}

	order, err := s.repos.Order.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodRazorpay ||
		order.GatewayPaymentID == nil || *order.GatewayPaymentID == "" {
		return nil, errors.ErrManualRefundRequired
	}

	amount := req.OriginalOrderAmount
	switch {
	case input.Amount != nil:
		amount = *input.Amount
	case req.CalculatedRefundAmount != nil:
		amount = *req.CalculatedRefundAmount
	}
	amount = amount.Round(2)

	if !amount.IsPositive() {
		return nil, &errors.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	if amount.GreaterThan(req.OriginalOrderAmount) {
		return nil, &errors.ErrValidation{
			Field:   "amount",
			Message: fmt.Sprintf("cannot exceed original order amount %s", req.OriginalOrderAmount.StringFixed(2)),
		}
	}

	now := s.lifecycle.now().UTC()
	txnNumber := domain.NewRefundTransactionNumber(now)
	notes := map[string]string{
		"return_number":      req.ReturnNumber,
		"return_request_id":  req.ID.String(),
		"transaction_number": txnNumber,
	}
	if n := strings.TrimSpace(input.Notes); n != "" {
		notes["notes"] = n
	}

	// Claim the return before money moves. A concurrent or retried call loses at this guard.
	from := req.Status
	claimed := *req
	claimed.Status = domain.ReturnStatusRefundInitiated
	claimed.FinalRefundAmount = &amount
	claimed.UpdatedAt = now
	if err := s.repos.ReturnRequest.Update(ctx, &claimed, from); err != nil {
		return nil, err
	}

	refund, err := s.gateway.RefundPayment(ctx, *order.GatewayPaymentID, razorpay.RefundRequest{
		Amount:  domain.ToPaise(amount),
		Receipt: txnNumber,
		Notes:   notes,
	})
	if err == nil && refundStatus(refund.Status) == domain.RefundStatusFailed {
		err = fmt.Errorf("refund %s reported as failed", refund.ID)
	}
	if err != nil {
		s.logger.Error("Gateway refund failed",
			zap.String("return_number", req.ReturnNumber),
			zap.String("payment_id", *order.GatewayPaymentID),
			zap.Error(err),
		)
		s.releaseClaim(ctx, req, &claimed)
		return nil, fmt.Errorf("%w: %v", errors.ErrGateway, err)
	}

	txn := &domain.RefundTransaction{
		ID:                uuid.New(),
		TransactionNumber: txnNumber,
		ReturnRequestID:   req.ID,
		OrderID:           order.ID,
		GatewayPaymentID:  *order.GatewayPaymentID,
		RazorpayRefundID:  stringRef(refund.ID),
		RefundAmount:      amount,
		Status:            refundStatus(refund.Status),
		Notes:             stringRef(strings.TrimSpace(input.Notes)),
		InitiatedBy:       initiatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if txn.Status == domain.RefundStatusProcessed {
		txn.ProcessedAt = &now
	}

	historyNote := stringRef(fmt.Sprintf("refund %s of %s initiated", txnNumber, amount.StringFixed(2)))

	if err := s.repos.RefundTransaction.Create(ctx, txn); err != nil {
		// the gateway already accepted the refund, so the claim stays; operators reconcile by refund id
		s.logger.Error("Failed to record refund transaction",
			zap.String("return_number", req.ReturnNumber),
			zap.String("refund_id", refund.ID),
			zap.Error(err),
		)
		s.lifecycle.recordStatusChange(ctx, &claimed, &from, initiatedBy, historyNote)
		return nil, fmt.Errorf("failed to record refund transaction: %w", err)
	}

	s.lifecycle.recordStatusChange(ctx, &claimed, &from, initiatedBy, historyNote)

	s.logger.Info("Refund initiated",
		zap.String("return_number", req.ReturnNumber),
		zap.String("transaction_number", txnNumber),
		zap.String("amount", amount.StringFixed(2)),
	)

	return txn, nil
}

// ConfirmRefund marks the refund as settled and completes the return
func (s *RefundService) ConfirmRefund(
	ctx context.Context,
	id uuid.UUID,
	input ConfirmRefundRequest,
	confirmedBy string,
) (*domain.RefundTransaction, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Transition(req.Status, domain.ReturnStatusRefundCompleted); err != nil {
		return nil, err
	}

	txn, err := s.repos.RefundTransaction.GetLatestByReturnRequestID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.GatewayRefundID != nil && *input.GatewayRefundID != "" {
		if txn.RazorpayRefundID != nil && *txn.RazorpayRefundID != *input.GatewayRefundID {
			return nil, &errors.ErrValidation{
				Field:   "gateway_refund_id",
				Message: fmt.Sprintf("does not match recorded refund %s", *txn.RazorpayRefundID),
			}
		}
		txn.RazorpayRefundID = input.GatewayRefundID
	}

	if txn.Status == domain.RefundStatusFailed {
		return nil, &errors.ErrValidation{
			Field:   "refund_transaction",
			Message: fmt.Sprintf("refund %s failed at the gateway and cannot be confirmed", txn.TransactionNumber),
		}
	}

	now := s.lifecycle.now().UTC()
	txn.Status = domain.RefundStatusProcessed
	if txn.ProcessedAt == nil {
		txn.ProcessedAt = &now
	}
	txn.UpdatedAt = now

	if err := s.repos.RefundTransaction.Update(ctx, txn); err != nil {
		return nil, err
	}

	err = s.lifecycle.transition(ctx, req, domain.ReturnStatusRefundCompleted, confirmedBy,
		stringRef(fmt.Sprintf("refund %s confirmed", txn.TransactionNumber)), nil)
	if err != nil {
		return nil, err
	}

	return txn, nil
}

// releaseClaim puts the return back to its status before the refund attempt
func (s *RefundService) releaseClaim(ctx context.Context, original, claimed *domain.ReturnRequest) {
	restored := *original
	restored.UpdatedAt = s.lifecycle.now().UTC()
	if err := s.repos.ReturnRequest.Update(ctx, &restored, claimed.Status); err != nil {
		s.logger.Error("Failed to release refund claim",
			zap.String("return_number", original.ReturnNumber),
			zap.String("status", string(original.Status)),
			zap.Error(err),
		)
	}
}

func refundStatus(gatewayStatus string) domain.RefundStatus {
	switch gatewayStatus {
	case "processed":
		return domain.RefundStatusProcessed
	case "failed":
		return domain.RefundStatusFailed
	default:
		return domain.RefundStatusPending
	}
}
