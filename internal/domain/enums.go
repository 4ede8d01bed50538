package domain

import (
	"github.com/jafarshop/returnsapi/pkg/errors"
)

// ReturnStatus represents the lifecycle status of a return request
type ReturnStatus string

const (
	ReturnStatusPendingShipment   ReturnStatus = "pending_shipment"
	ReturnStatusShippedByCustomer ReturnStatus = "shipped_by_customer"
	ReturnStatusReceived          ReturnStatus = "received"
	ReturnStatusUnderInspection   ReturnStatus = "under_inspection"
	ReturnStatusApproved          ReturnStatus = "approved"
	ReturnStatusPartiallyApproved ReturnStatus = "partially_approved"
	ReturnStatusRejected          ReturnStatus = "rejected"
	ReturnStatusRefundInitiated   ReturnStatus = "refund_initiated"
	ReturnStatusRefundCompleted   ReturnStatus = "refund_completed"
	ReturnStatusCancelled         ReturnStatus = "cancelled"
)

// IsValid checks if the return status is valid
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPendingShipment,
		ReturnStatusShippedByCustomer,
		ReturnStatusReceived,
		ReturnStatusUnderInspection,
		ReturnStatusApproved,
		ReturnStatusPartiallyApproved,
		ReturnStatusRejected,
		ReturnStatusRefundInitiated,
		ReturnStatusRefundCompleted,
		ReturnStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s ReturnStatus) CanTransitionTo(newStatus ReturnStatus) bool {
	switch s {
	case ReturnStatusPendingShipment:
		return newStatus == ReturnStatusShippedByCustomer ||
			newStatus == ReturnStatusCancelled
	case ReturnStatusShippedByCustomer:
		return newStatus == ReturnStatusReceived ||
			newStatus == ReturnStatusCancelled
	case ReturnStatusReceived:
		return newStatus == ReturnStatusUnderInspection ||
			newStatus.IsDecision()
	case ReturnStatusUnderInspection:
		return newStatus.IsDecision()
	case ReturnStatusApproved, ReturnStatusPartiallyApproved:
		return newStatus == ReturnStatusRefundInitiated
	case ReturnStatusRefundInitiated:
		return newStatus == ReturnStatusRefundCompleted
	case ReturnStatusRejected, ReturnStatusRefundCompleted, ReturnStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusRejected ||
		s == ReturnStatusRefundCompleted ||
		s == ReturnStatusCancelled
}

// IsDecision reports whether the status is an inspection outcome
func (s ReturnStatus) IsDecision() bool {
	return s == ReturnStatusApproved ||
		s == ReturnStatusPartiallyApproved ||
		s == ReturnStatusRejected
}

// Transition validates a move from one status to another
func Transition(from, to ReturnStatus) error {
	if !from.CanTransitionTo(to) {
		return &errors.ErrInvalidStateTransition{From: string(from), To: string(to)}
	}
	return nil
}

// ItemCondition is the condition an item was found in at inspection
type ItemCondition string

const (
	ConditionExcellent   ItemCondition = "excellent"
	ConditionGood        ItemCondition = "good"
	ConditionFair        ItemCondition = "fair"
	ConditionPoor        ItemCondition = "poor"
	ConditionDamaged     ItemCondition = "damaged"
	ConditionNotReceived ItemCondition = "not_received"
)

// AllConditions lists every condition in deduction order
var AllConditions = []ItemCondition{
	ConditionExcellent,
	ConditionGood,
	ConditionFair,
	ConditionPoor,
	ConditionDamaged,
	ConditionNotReceived,
}

// IsValid checks if the condition is valid
func (c ItemCondition) IsValid() bool {
	_, ok := c.DeductionPercentage()
	return ok
}

// DeductionPercentage returns the share of the item price withheld from the refund
func (c ItemCondition) DeductionPercentage() (int64, bool) {
	switch c {
	case ConditionExcellent:
		return 0, true
	case ConditionGood:
		return 5, true
	case ConditionFair:
		return 15, true
	case ConditionPoor:
		return 30, true
	case ConditionDamaged:
		return 50, true
	case ConditionNotReceived:
		return 100, true
	default:
		return 0, false
	}
}

// IsAcceptable reports whether the condition alone allows full approval
func (c ItemCondition) IsAcceptable() bool {
	return c == ConditionExcellent || c == ConditionGood
}

// InspectionStatus summarises the outcome of an inspection
type InspectionStatus string

const (
	InspectionStatusPassed      InspectionStatus = "passed"
	InspectionStatusFailed      InspectionStatus = "failed"
	InspectionStatusPartialPass InspectionStatus = "partial_pass"
)

// ReturnReason is the customer's stated reason for the return
type ReturnReason string

const (
	ReasonDefective        ReturnReason = "defective"
	ReasonDamagedInTransit ReturnReason = "damaged_in_transit"
	ReasonWrongItem        ReturnReason = "wrong_item"
	ReasonNotAsDescribed   ReturnReason = "not_as_described"
	ReasonSizeIssue        ReturnReason = "size_issue"
	ReasonQualityIssue     ReturnReason = "quality_issue"
	ReasonChangedMind      ReturnReason = "changed_mind"
	ReasonOther            ReturnReason = "other"
)

// IsValid checks if the reason is valid
func (r ReturnReason) IsValid() bool {
	switch r {
	case ReasonDefective,
		ReasonDamagedInTransit,
		ReasonWrongItem,
		ReasonNotAsDescribed,
		ReasonSizeIssue,
		ReasonQualityIssue,
		ReasonChangedMind,
		ReasonOther:
		return true
	default:
		return false
	}
}

// ReturnType distinguishes money-back returns from exchanges
type ReturnType string

const (
	ReturnTypeRefund   ReturnType = "refund"
	ReturnTypeExchange ReturnType = "exchange"
)

// IsValid checks if the return type is valid
func (t ReturnType) IsValid() bool {
	return t == ReturnTypeRefund || t == ReturnTypeExchange
}

// OrderStatus represents the fulfilment status of a customer order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod identifies how an order was paid
type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
)

// ItemType separates physical products from non-returnable services
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

// RefundStatus represents the gateway state of a refund
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)
