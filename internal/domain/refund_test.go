package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/returnsapi/pkg/errors"
)

func TestCalculateItemRefund_DeductionTable(t *testing.T) {
	total := decimal.RequireFromString("2000")

	tests := []struct {
		condition ItemCondition
		pct       int64
		deduction string
		approved  string
	}{
		{ConditionExcellent, 0, "0", "2000"},
		{ConditionGood, 5, "100", "1900"},
		{ConditionFair, 15, "300", "1700"},
		{ConditionPoor, 30, "600", "1400"},
		{ConditionDamaged, 50, "1000", "1000"},
		{ConditionNotReceived, 100, "2000", "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.condition), func(t *testing.T) {
			refund, err := CalculateItemRefund(total, tt.condition)
			require.NoError(t, err)

			assert.True(t, refund.DeductionPercentage.Equal(decimal.NewFromInt(tt.pct)))
			assert.True(t, refund.DeductionAmount.Equal(decimal.RequireFromString(tt.deduction)),
				"deduction %s", refund.DeductionAmount)
			assert.True(t, refund.ApprovedAmount.Equal(decimal.RequireFromString(tt.approved)),
				"approved %s", refund.ApprovedAmount)
			assert.True(t, refund.DeductionAmount.Add(refund.ApprovedAmount).Equal(total))
		})
	}
}

func TestCalculateItemRefund_RoundsToPaise(t *testing.T) {
	refund, err := CalculateItemRefund(decimal.RequireFromString("99.99"), ConditionFair)
	require.NoError(t, err)

	// 15% of 99.99 is 14.9985
	assert.Equal(t, "15", refund.DeductionAmount.String())
	assert.Equal(t, "84.99", refund.ApprovedAmount.String())
}

func TestCalculateItemRefund_UnknownCondition(t *testing.T) {
	_, err := CalculateItemRefund(decimal.NewFromInt(10), ItemCondition("mint"))

	var validation *errors.ErrValidation
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "item_condition", validation.Field)
}

func TestCalculateRefund_Sums(t *testing.T) {
	good, err := CalculateItemRefund(decimal.NewFromInt(1000), ConditionGood)
	require.NoError(t, err)
	damaged, err := CalculateItemRefund(decimal.NewFromInt(500), ConditionDamaged)
	require.NoError(t, err)

	calc := CalculateRefund([]ItemRefund{good, damaged})

	assert.True(t, calc.OriginalAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, calc.DeductionAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, calc.ApprovedAmount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, int64(120000), calc.AmountInPaise())
}

func TestDeriveReturnStatus(t *testing.T) {
	tests := []struct {
		name       string
		conditions []ItemCondition
		want       ReturnStatus
	}{
		{"all acceptable", []ItemCondition{ConditionExcellent, ConditionGood}, ReturnStatusApproved},
		{"single good", []ItemCondition{ConditionGood}, ReturnStatusApproved},
		{"mixed with fair", []ItemCondition{ConditionExcellent, ConditionFair}, ReturnStatusPartiallyApproved},
		{"all not received", []ItemCondition{ConditionNotReceived, ConditionNotReceived}, ReturnStatusRejected},
		{"one not received", []ItemCondition{ConditionNotReceived, ConditionExcellent}, ReturnStatusPartiallyApproved},
		{"all damaged", []ItemCondition{ConditionDamaged, ConditionDamaged}, ReturnStatusPartiallyApproved},
		{"single poor", []ItemCondition{ConditionPoor}, ReturnStatusPartiallyApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveReturnStatus(tt.conditions))
		})
	}
}

func TestDeriveInspectionStatus(t *testing.T) {
	assert.Equal(t, InspectionStatusPassed,
		DeriveInspectionStatus([]ItemCondition{ConditionExcellent}, decimal.Zero))
	assert.Equal(t, InspectionStatusPartialPass,
		DeriveInspectionStatus([]ItemCondition{ConditionGood}, decimal.NewFromInt(100)))
	assert.Equal(t, InspectionStatusPartialPass,
		DeriveInspectionStatus([]ItemCondition{ConditionFair, ConditionGood}, decimal.NewFromInt(300)))
	assert.Equal(t, InspectionStatusFailed,
		DeriveInspectionStatus([]ItemCondition{ConditionNotReceived}, decimal.NewFromInt(2000)))
}

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(190000), ToPaise(decimal.RequireFromString("1900")))
	assert.Equal(t, int64(1999), ToPaise(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1), ToPaise(decimal.RequireFromString("0.005")))
}
