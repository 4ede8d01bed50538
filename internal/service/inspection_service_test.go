package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

func TestCompleteInspection_GoodConditionEndToEnd(t *testing.T) {
	f := newFixture(t)
	created := f.createReturn(t, 2)
	f.receive(t, created.ID)

	result := f.inspect(t, created, domain.ConditionGood)

	assert.Equal(t, domain.ReturnStatusApproved, result.Status)
	require.Len(t, result.Items, 1)
	item := result.Items[0]
	assert.Equal(t, "5", item.DeductionPercentage.String())
	assert.Equal(t, "100.00", item.DeductionAmount.StringFixed(2))
	assert.Equal(t, "1900.00", item.ApprovedAmount.StringFixed(2))

	stored, err := f.services.Returns.GetReturnRequest(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusApproved, stored.Status)
	assert.Equal(t, "1900.00", stored.CalculatedRefundAmount.StringFixed(2))
	assert.Equal(t, "1900.00", stored.FinalRefundAmount.StringFixed(2))
	assert.Equal(t, "100.00", stored.DeductionAmount.StringFixed(2))
	require.NotNil(t, stored.InspectionStatus)
	assert.Equal(t, domain.InspectionStatusPartialPass, *stored.InspectionStatus)
	require.NotNil(t, stored.DecisionBy)
	assert.Equal(t, operatorName, *stored.DecisionBy)

	require.Len(t, stored.Items, 1)
	require.NotNil(t, stored.Items[0].ConditionOnReturn)
	assert.Equal(t, domain.ConditionGood, *stored.Items[0].ConditionOnReturn)
	require.NotNil(t, stored.Items[0].DeductionReason)
	assert.Equal(t, "5% deduction for good condition", *stored.Items[0].DeductionReason)
}

func addSecondItem(t *testing.T, f *fixture, price int64) domain.OrderItem {
	t.Helper()
	second := domain.OrderItem{
		ID:          uuid.New(),
		OrderID:     f.order.ID,
		ProductID:   uuid.New(),
		ProductName: "Socks",
		ItemType:    domain.ItemTypeProduct,
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(price),
		TotalPrice:  decimal.NewFromInt(price),
	}
	f.store.PutOrder(f.order, []domain.OrderItem{f.item, second})
	return second
}

func createTwoItemReturn(t *testing.T, f *fixture) *domain.ReturnRequestWithItems {
	t.Helper()
	second := addSecondItem(t, f, 200)
	input := f.createInput(1)
	input.Items = append(input.Items, ReturnItemInput{OrderItemID: second.ID, Quantity: 1})

	created, err := f.services.Returns.CreateReturnRequest(f.ctx, input)
	require.NoError(t, err)
	require.Len(t, created.Items, 2)
	return created
}

func TestCompleteInspection_DerivedStatus(t *testing.T) {
	tests := []struct {
		name       string
		conditions []domain.ItemCondition
		status     domain.ReturnStatus
		refund     string
	}{
		{"all acceptable", []domain.ItemCondition{domain.ConditionExcellent, domain.ConditionGood}, domain.ReturnStatusApproved, "1190.00"},
		{"mixed", []domain.ItemCondition{domain.ConditionExcellent, domain.ConditionFair}, domain.ReturnStatusPartiallyApproved, "1170.00"},
		{"nothing arrived", []domain.ItemCondition{domain.ConditionNotReceived, domain.ConditionNotReceived}, domain.ReturnStatusRejected, "0.00"},
		{"one missing", []domain.ItemCondition{domain.ConditionNotReceived, domain.ConditionExcellent}, domain.ReturnStatusPartiallyApproved, "200.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			created := createTwoItemReturn(t, f)
			f.receive(t, created.ID)

			result := f.inspect(t, created, tt.conditions...)

			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, tt.refund, result.FinalRefundAmount.StringFixed(2))
		})
	}
}

func TestCompleteInspection_FromUnderInspection(t *testing.T) {
	f := newFixture(t)
	created := f.createReturn(t, 1)
	f.receive(t, created.ID)

	started, err := f.services.Returns.StartInspection(f.ctx, created.ID, operatorName)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusUnderInspection, started.Status)

	result := f.inspect(t, created, domain.ConditionExcellent)
	assert.Equal(t, domain.ReturnStatusApproved, result.Status)
	assert.Equal(t, domain.InspectionStatusPassed, *result.InspectionStatus)
}

func TestCompleteInspection_Rejections(t *testing.T) {
	f := newFixture(t)
	created := createTwoItemReturn(t, f)

	first := ItemInspection{ItemID: created.Items[0].ID, Condition: domain.ConditionGood}
	second := ItemInspection{ItemID: created.Items[1].ID, Condition: domain.ConditionGood}

	t.Run("before the package arrives", func(t *testing.T) {
		_, err := f.services.Inspection.CompleteInspection(f.ctx, created.ID,
			CompleteInspectionRequest{Items: []ItemInspection{first, second}}, operatorName)

		var transition *errors.ErrInvalidStateTransition
		assert.True(t, errors.As(err, &transition), "got %v", err)
	})

	f.receive(t, created.ID)

	cases := []struct {
		name  string
		items []ItemInspection
	}{
		{"missing item", []ItemInspection{first}},
		{"duplicate item", []ItemInspection{first, first, second}},
		{"unknown item", []ItemInspection{first, second, {ItemID: uuid.New(), Condition: domain.ConditionGood}}},
		{"unknown condition", []ItemInspection{first, {ItemID: second.ItemID, Condition: "shiny"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.services.Inspection.CompleteInspection(f.ctx, created.ID,
				CompleteInspectionRequest{Items: tc.items}, operatorName)

			var validation *errors.ErrValidation
			assert.True(t, errors.As(err, &validation), "got %v", err)
		})
	}

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusReceived, stored.Status)

	items, err := f.repos.ReturnItem.GetByReturnRequestID(f.ctx, created.ID)
	require.NoError(t, err)
	for _, item := range items {
		assert.Nil(t, item.ConditionOnReturn)
	}
}

func TestCompleteInspection_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	created := f.createReturn(t, 1)
	f.receive(t, created.ID)
	f.inspect(t, created, domain.ConditionGood)

	_, err := f.services.Inspection.CompleteInspection(f.ctx, created.ID, CompleteInspectionRequest{
		Items: []ItemInspection{{ItemID: created.Items[0].ID, Condition: domain.ConditionPoor}},
	}, operatorName)

	var transition *errors.ErrInvalidStateTransition
	assert.True(t, errors.As(err, &transition), "got %v", err)
}

func TestPreviewRefund_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	created := createTwoItemReturn(t, f)
	f.receive(t, created.ID)

	preview, err := f.services.Inspection.PreviewRefund(f.ctx, created.ID, PreviewRefundRequest{
		Items: []ItemInspection{
			{ItemID: created.Items[0].ID, Condition: domain.ConditionDamaged},
			{ItemID: created.Items[1].ID, Condition: domain.ConditionExcellent},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ReturnStatusPartiallyApproved, preview.Status)
	assert.Equal(t, "1200.00", preview.OriginalAmount.StringFixed(2))
	assert.Equal(t, "500.00", preview.DeductionAmount.StringFixed(2))
	assert.Equal(t, "700.00", preview.RefundAmount.StringFixed(2))
	require.Len(t, preview.Items, 2)
	assert.Equal(t, "50", preview.Items[0].DeductionPercentage.String())

	stored, err := f.services.Returns.GetReturnRequest(f.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusReceived, stored.Status)
	assert.Nil(t, stored.CalculatedRefundAmount)
	for _, item := range stored.Items {
		assert.Nil(t, item.ConditionOnReturn)
	}
}
