package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Operator is an admin user allowed to act on return requests
type Operator struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash string
	// APIKeyLookup is an unsalted digest used to find the row before the bcrypt check
	APIKeyLookup string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Customer is the owner of orders and return requests
type Customer struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Phone     *string
	CreatedAt time.Time
}

// Order is a delivered customer order a return can be raised against
type Order struct {
	ID               uuid.UUID
	OrderNumber      string
	CustomerID       uuid.UUID
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    PaymentMethod
	GatewayPaymentID *string
	TotalAmount      decimal.Decimal
	DeliveredAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem represents a line item of an order
type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductID        uuid.UUID
	ProductVariantID *uuid.UUID
	ProductName      string
	ItemType         ItemType
	Quantity         int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
}

// ReturnAddress is where the customer must ship the returned goods
type ReturnAddress struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// IsSet reports whether every mandatory address field is filled in
func (a ReturnAddress) IsSet() bool {
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.State) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.Country) != ""
}

// ReturnRequest is one customer-initiated return against one order
type ReturnRequest struct {
	ID            uuid.UUID
	ReturnNumber  string
	OrderID       uuid.UUID
	CustomerID    uuid.UUID
	RequestType   ReturnType
	Reason        ReturnReason
	Description   string
	PickupAddress string
	ImageURLs     []string
	VideoURL      *string
	Status        ReturnStatus

	OriginalOrderAmount    decimal.Decimal
	CalculatedRefundAmount *decimal.Decimal
	DeductionAmount        *decimal.Decimal
	FinalRefundAmount      *decimal.Decimal

	ReturnAddress ReturnAddress

	CustomerTrackingNumber *string
	CustomerCourierName    *string
	CustomerShippedDate    *time.Time

	ReceivedBy       *string
	ReceivedDate     *time.Time
	InspectedBy      *string
	InspectionDate   *time.Time
	InspectionStatus *InspectionStatus
	InspectionNotes  *string
	DecisionBy       *string
	DecisionDate     *time.Time

	CancellationReason *string
	AdminNotes         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReturnItem is one returned unit-group of an order line item
type ReturnItem struct {
	ID               uuid.UUID
	ReturnRequestID  uuid.UUID
	OrderItemID      uuid.UUID
	ProductID        uuid.UUID
	ProductVariantID *uuid.UUID
	ProductName      string
	Quantity         int
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal

	ConditionOnReturn       *ItemCondition
	ConditionNotes          *string
	QualityIssueDescription *string
	DeductionPercentage     *decimal.Decimal
	DeductionAmount         *decimal.Decimal
	DeductionReason         *string
	ApprovedAmount          *decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReturnRequestWithItems bundles a request with its line items
type ReturnRequestWithItems struct {
	ReturnRequest
	Items []*ReturnItem
}

// StatusHistory is an audit row for a return request
type StatusHistory struct {
	ID              uuid.UUID
	ReturnRequestID uuid.UUID
	FromStatus      *ReturnStatus
	ToStatus        ReturnStatus
	ChangedBy       string
	Notes           *string
	CreatedAt       time.Time
}

// RefundTransaction records a refund issued through the payment gateway
type RefundTransaction struct {
	ID                uuid.UUID
	TransactionNumber string
	ReturnRequestID   uuid.UUID
	OrderID           uuid.UUID
	GatewayPaymentID  string
	RazorpayRefundID  *string
	RefundAmount      decimal.Decimal
	Status            RefundStatus
	Notes             *string
	InitiatedBy       string
	ProcessedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IdempotencyKey stores idempotency information
type IdempotencyKey struct {
	Key             string
	CustomerID      uuid.UUID
	ReturnRequestID uuid.UUID
	RequestHash     string
	CreatedAt       time.Time
}
