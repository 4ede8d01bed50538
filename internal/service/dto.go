package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jafarshop/returnsapi/internal/domain"
)

// CreateReturnRequest is the customer payload for opening a return
type CreateReturnRequest struct {
	OrderID       uuid.UUID           `json:"order_id" binding:"required"`
	RequestType   domain.ReturnType   `json:"request_type" binding:"omitempty,oneof=refund exchange"`
	Reason        domain.ReturnReason `json:"reason" binding:"required"`
	Description   string              `json:"description" binding:"required,max=2000"`
	PickupAddress string              `json:"pickup_address" binding:"max=1000"`
	ImageURLs     []string            `json:"image_urls" binding:"max=10,dive,url"`
	VideoURL      *string             `json:"video_url,omitempty" binding:"omitempty,url"`
	Items         []ReturnItemInput   `json:"items" binding:"required,min=1,dive"`

	CustomerID     uuid.UUID `json:"-"`
	IdempotencyKey string    `json:"-"`
}

type ReturnItemInput struct {
	OrderItemID uuid.UUID `json:"order_item_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
}

// ShipReturnRequest carries the customer's courier details
type ShipReturnRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=128"`
	CourierName    string `json:"courier_name" binding:"required,max=128"`
}

type CancelReturnRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ReturnAddressRequest is the warehouse address the customer ships to
type ReturnAddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=255"`
	Line2      string `json:"line2" binding:"max=255"`
	City       string `json:"city" binding:"required,max=128"`
	State      string `json:"state" binding:"required,max=128"`
	PostalCode string `json:"postal_code" binding:"required,max=32"`
	Country    string `json:"country" binding:"required,max=64"`
}

func (r ReturnAddressRequest) toDomain() domain.ReturnAddress {
	return domain.ReturnAddress{
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

type AdminNoteRequest struct {
	Note string `json:"note" binding:"required,max=2000"`
}

// ItemInspection is the inspector's verdict for one return item
type ItemInspection struct {
	ItemID                  uuid.UUID            `json:"item_id" binding:"required"`
	Condition               domain.ItemCondition `json:"item_condition" binding:"required"`
	InspectionNotes         *string              `json:"inspection_notes,omitempty"`
	QualityIssueDescription *string              `json:"quality_issue_description,omitempty"`
}

type CompleteInspectionRequest struct {
	Items           []ItemInspection `json:"items" binding:"required,min=1,dive"`
	InspectionNotes string           `json:"inspection_notes" binding:"max=2000"`
}

type PreviewRefundRequest struct {
	Items []ItemInspection `json:"items" binding:"required,min=1,dive"`
}

type InitiateRefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Notes  string           `json:"notes" binding:"max=1000"`
}

type ConfirmRefundRequest struct {
	GatewayRefundID *string `json:"gateway_refund_id,omitempty"`
}

// EligibilityResult answers whether an order can be returned and which items qualify
type EligibilityResult struct {
	OrderID         uuid.UUID        `json:"order_id"`
	IsEligible      bool             `json:"is_eligible"`
	EligibleItems   []EligibleItem   `json:"eligible_items"`
	IneligibleItems []IneligibleItem `json:"ineligible_items"`
	DaysRemaining   int              `json:"days_remaining"`
	Reasons         []string         `json:"reasons"`
}

type EligibleItem struct {
	OrderItemID        uuid.UUID       `json:"order_item_id"`
	ProductID          uuid.UUID       `json:"product_id"`
	ProductVariantID   *uuid.UUID      `json:"product_variant_id,omitempty"`
	ProductName        string          `json:"product_name"`
	OrderedQuantity    int             `json:"ordered_quantity"`
	ReturnableQuantity int             `json:"returnable_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
}

type IneligibleItem struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	ProductName string    `json:"product_name"`
	Reason      string    `json:"reason"`
}

// RefundPreview is an inspection outcome computed without persisting anything
type RefundPreview struct {
	Items            []RefundPreviewItem     `json:"items"`
	OriginalAmount   decimal.Decimal         `json:"original_amount"`
	DeductionAmount  decimal.Decimal         `json:"deduction_amount"`
	RefundAmount     decimal.Decimal         `json:"refund_amount"`
	Status           domain.ReturnStatus     `json:"status"`
	InspectionStatus domain.InspectionStatus `json:"inspection_status"`
}

type RefundPreviewItem struct {
	ItemID              uuid.UUID            `json:"item_id"`
	ProductName         string               `json:"product_name"`
	Condition           domain.ItemCondition `json:"item_condition"`
	TotalPrice          decimal.Decimal      `json:"total_price"`
	DeductionPercentage decimal.Decimal      `json:"deduction_percentage"`
	DeductionAmount     decimal.Decimal      `json:"deduction_amount"`
	ApprovedAmount      decimal.Decimal      `json:"approved_amount"`
}

// NotificationResult describes the email that was dispatched
type NotificationResult struct {
	Template string `json:"template"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
}
