package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/mailer"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

const (
	TemplateReturnAddress      = "return_address"
	TemplatePackageReceived    = "package_received"
	TemplateInspectionComplete = "inspection_complete"
	TemplateRefundProcessed    = "refund_processed"
)

type NotificationService struct {
	repos  *repository.Repositories
	mailer mailer.Mailer
	store  config.ReturnsConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repos *repository.Repositories, m mailer.Mailer, store config.ReturnsConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		repos:  repos,
		mailer: m,
		store:  store,
		logger: logger,
	}
}

// SendStatusNotification emails the customer about the return's current status.
// A send failure is reported but never changes the return.
func (s *NotificationService) SendStatusNotification(ctx context.Context, id uuid.UUID) (*NotificationResult, error) {
	req, err := s.repos.ReturnRequest.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	template, err := templateFor(req.Status)
	if err != nil {
		return nil, err
	}
	if template == TemplateReturnAddress && !req.ReturnAddress.IsSet() {
		return nil, &errors.ErrValidation{Field: "return_address", Message: "set the return address before notifying the customer"}
	}

	customer, err := s.repos.Customer.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	order, err := s.repos.Order.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	data := mailer.TemplateData{
		StoreName:    s.store.StoreName,
		SupportEmail: s.store.SupportEmail,
		CustomerName: customer.FullName,
		ReturnNumber: req.ReturnNumber,
		OrderNumber:  order.OrderNumber,
		Status:       strings.ReplaceAll(string(req.Status), "_", " "),
	}

	var html, subject string
	switch template {
	case TemplateReturnAddress:
		data.AddressLines = addressLines(req.ReturnAddress)
		subject = fmt.Sprintf("Ship your return %s", req.ReturnNumber)
		html, err = mailer.ReturnAddressEmail(data)

	case TemplatePackageReceived:
		subject = fmt.Sprintf("We received your return %s", req.ReturnNumber)
		html, err = mailer.PackageReceivedEmail(data)

	case TemplateInspectionComplete:
		if err := s.fillInspection(ctx, req, &data); err != nil {
			return nil, err
		}
		subject = fmt.Sprintf("Inspection complete for return %s", req.ReturnNumber)
		html, err = mailer.InspectionCompleteEmail(data)

	case TemplateRefundProcessed:
		txn, txErr := s.repos.RefundTransaction.GetLatestByReturnRequestID(ctx, req.ID)
		if errors.IsNotFound(txErr) {
			return nil, &errors.ErrValidation{Field: "refund_transaction", Message: "no refund transaction recorded for this return"}
		}
		if txErr != nil {
			return nil, txErr
		}
		data.RefundAmount = txn.RefundAmount.StringFixed(2)
		data.TransactionNumber = txn.TransactionNumber
		if txn.RazorpayRefundID != nil {
			data.GatewayRefundID = *txn.RazorpayRefundID
		}
		subject = fmt.Sprintf("Refund processed for return %s", req.ReturnNumber)
		html, err = mailer.RefundProcessedEmail(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", template, err)
	}

	if err := s.mailer.Send(ctx, mailer.Message{To: customer.Email, Subject: subject, HTML: html}); err != nil {
		s.logger.Error("Failed to send return notification",
			zap.String("return_number", req.ReturnNumber),
			zap.String("template", template),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	return &NotificationResult{Template: template, To: customer.Email, Subject: subject}, nil
}

// templateFor maps a status to the one email it triggers
func templateFor(status domain.ReturnStatus) (string, error) {
	switch status {
	case domain.ReturnStatusPendingShipment:
		return TemplateReturnAddress, nil
	case domain.ReturnStatusReceived, domain.ReturnStatusUnderInspection:
		return TemplatePackageReceived, nil
	case domain.ReturnStatusApproved, domain.ReturnStatusPartiallyApproved, domain.ReturnStatusRejected:
		return TemplateInspectionComplete, nil
	case domain.ReturnStatusRefundCompleted:
		return TemplateRefundProcessed, nil
	default:
		return "", errors.ErrNoNotification
	}
}

func (s *NotificationService) fillInspection(ctx context.Context, req *domain.ReturnRequest, data *mailer.TemplateData) error {
	items, err := s.repos.ReturnItem.GetByReturnRequestID(ctx, req.ID)
	if err != nil {
		return err
	}

	data.OriginalAmount = req.OriginalOrderAmount.StringFixed(2)
	if req.DeductionAmount != nil {
		data.DeductionAmount = req.DeductionAmount.StringFixed(2)
	}
	if req.FinalRefundAmount != nil {
		data.RefundAmount = req.FinalRefundAmount.StringFixed(2)
	}
	if req.InspectionNotes != nil {
		data.InspectionNotes = *req.InspectionNotes
	}

	for _, item := range items {
		line := mailer.TemplateItem{ProductName: item.ProductName, Quantity: item.Quantity}
		if item.ConditionOnReturn != nil {
			line.Condition = strings.ReplaceAll(string(*item.ConditionOnReturn), "_", " ")
		}
		if item.DeductionPercentage != nil {
			line.DeductionPct = item.DeductionPercentage.String()
		}
		if item.ApprovedAmount != nil {
			line.ApprovedAmount = item.ApprovedAmount.StringFixed(2)
		}
		data.Items = append(data.Items, line)
	}
	return nil
}

func addressLines(a domain.ReturnAddress) []string {
	lines := []string{a.Line1}
	if strings.TrimSpace(a.Line2) != "" {
		lines = append(lines, a.Line2)
	}
	lines = append(lines,
		fmt.Sprintf("%s, %s %s", a.City, a.State, a.PostalCode),
		a.Country,
	)
	return lines
}
