package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jafarshop/returnsapi/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// ItemRefund is the inspected refund breakdown of a single return item
type ItemRefund struct {
	ItemCondition       ItemCondition
	TotalPrice          decimal.Decimal
	DeductionPercentage decimal.Decimal
	DeductionAmount     decimal.Decimal
	ApprovedAmount      decimal.Decimal
}

// CalculateItemRefund applies the condition deduction table to an item total.
// Amounts are rounded to two decimal places.
func CalculateItemRefund(totalPrice decimal.Decimal, condition ItemCondition) (ItemRefund, error) {
	pct, ok := condition.DeductionPercentage()
	if !ok {
		return ItemRefund{}, &errors.ErrValidation{
			Field:   "item_condition",
			Message: fmt.Sprintf("unknown condition %q", condition),
		}
	}

	percentage := decimal.NewFromInt(pct)
	deduction := totalPrice.Mul(percentage).Div(hundred).Round(2)

	return ItemRefund{
		ItemCondition:       condition,
		TotalPrice:          totalPrice,
		DeductionPercentage: percentage,
		DeductionAmount:     deduction,
		ApprovedAmount:      totalPrice.Sub(deduction),
	}, nil
}

// DeductionReason is the text stored alongside an item deduction
func DeductionReason(condition ItemCondition) string {
	pct, _ := condition.DeductionPercentage()
	if pct == 0 {
		return "no deduction"
	}
	return fmt.Sprintf("%d%% deduction for %s condition", pct, condition)
}

// RefundCalculation aggregates item refunds into request level totals
type RefundCalculation struct {
	Items           []ItemRefund
	OriginalAmount  decimal.Decimal
	DeductionAmount decimal.Decimal
	ApprovedAmount  decimal.Decimal
}

// AmountInPaise returns the approved amount in minor units for the gateway
func (c RefundCalculation) AmountInPaise() int64 {
	return ToPaise(c.ApprovedAmount)
}

// ToPaise converts a rupee amount to paise
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// CalculateRefund sums item refunds
func CalculateRefund(items []ItemRefund) RefundCalculation {
	calc := RefundCalculation{
		Items:           items,
		OriginalAmount:  decimal.Zero,
		DeductionAmount: decimal.Zero,
		ApprovedAmount:  decimal.Zero,
	}
	for _, item := range items {
		calc.OriginalAmount = calc.OriginalAmount.Add(item.TotalPrice)
		calc.DeductionAmount = calc.DeductionAmount.Add(item.DeductionAmount)
		calc.ApprovedAmount = calc.ApprovedAmount.Add(item.ApprovedAmount)
	}
	return calc
}

// DeriveReturnStatus maps the set of inspected item conditions to a decision.
// Only the condition labels matter, never the amounts. Callers pass a non-empty set.
func DeriveReturnStatus(conditions []ItemCondition) ReturnStatus {
	allNotReceived := true
	allAcceptable := true
	for _, c := range conditions {
		if c != ConditionNotReceived {
			allNotReceived = false
		}
		if !c.IsAcceptable() {
			allAcceptable = false
		}
	}

	switch {
	case allNotReceived:
		return ReturnStatusRejected
	case allAcceptable:
		return ReturnStatusApproved
	default:
		return ReturnStatusPartiallyApproved
	}
}

// DeriveInspectionStatus summarises the inspection for reporting
func DeriveInspectionStatus(conditions []ItemCondition, totalDeduction decimal.Decimal) InspectionStatus {
	switch DeriveReturnStatus(conditions) {
	case ReturnStatusRejected:
		return InspectionStatusFailed
	case ReturnStatusApproved:
		if totalDeduction.IsZero() {
			return InspectionStatusPassed
		}
	}
	return InspectionStatusPartialPass
}
