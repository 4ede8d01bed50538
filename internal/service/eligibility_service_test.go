package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

func TestCheckEligibility_WithinWindow(t *testing.T) {
	f := newFixture(t)

	result, err := f.services.Eligibility.CheckEligibility(f.ctx, f.order.ID)
	require.NoError(t, err)

	assert.True(t, result.IsEligible)
	assert.Equal(t, 5, result.DaysRemaining)
	assert.Empty(t, result.Reasons)
	require.Len(t, result.EligibleItems, 1)
	assert.Equal(t, 2, result.EligibleItems[0].ReturnableQuantity)
}

func TestCheckEligibility_PartialDayRoundsUp(t *testing.T) {
	f := newFixture(t)
	f.updateOrder(func(o *domain.Order) {
		delivered := fixedNow.Add(-6*24*time.Hour - time.Hour)
		o.DeliveredAt = &delivered
	})

	result, err := f.services.Eligibility.CheckEligibility(f.ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, result.IsEligible)
	assert.Equal(t, 1, result.DaysRemaining)
}

func TestCheckEligibility_Ineligible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *domain.Order)
		reason string
	}{
		{
			name: "window expired",
			mutate: func(o *domain.Order) {
				delivered := fixedNow.Add(-8 * 24 * time.Hour)
				o.DeliveredAt = &delivered
			},
			reason: "return window of 7 days has expired",
		},
		{
			name: "window ends exactly now",
			mutate: func(o *domain.Order) {
				delivered := fixedNow.Add(-7 * 24 * time.Hour)
				o.DeliveredAt = &delivered
			},
			reason: "return window of 7 days has expired",
		},
		{
			name: "not delivered",
			mutate: func(o *domain.Order) {
				o.Status = domain.OrderStatusShipped
				o.DeliveredAt = nil
			},
			reason: "order has not been delivered yet",
		},
		{
			name:   "unpaid",
			mutate: func(o *domain.Order) { o.PaymentStatus = domain.PaymentStatusPending },
			reason: "order payment has not been completed",
		},
		{
			name:   "delivery date missing",
			mutate: func(o *domain.Order) { o.DeliveredAt = nil },
			reason: "delivery date is not recorded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.updateOrder(tt.mutate)

			result, err := f.services.Eligibility.CheckEligibility(f.ctx, f.order.ID)
			require.NoError(t, err)
			assert.False(t, result.IsEligible)
			assert.Contains(t, result.Reasons, tt.reason)
			assert.Zero(t, result.DaysRemaining)
		})
	}
}

func TestCheckEligibility_ServiceItems(t *testing.T) {
	f := newFixture(t)
	installation := domain.OrderItem{
		ID:          uuid.New(),
		OrderID:     f.order.ID,
		ProductID:   uuid.New(),
		ProductName: "Installation",
		ItemType:    domain.ItemTypeService,
		Quantity:    1,
		UnitPrice:   decimal.NewFromInt(200),
		TotalPrice:  decimal.NewFromInt(200),
	}
	f.store.PutOrder(f.order, []domain.OrderItem{f.item, installation})

	result, err := f.services.Eligibility.CheckEligibility(f.ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, result.IsEligible)
	require.Len(t, result.IneligibleItems, 1)
	assert.Equal(t, installation.ID, result.IneligibleItems[0].OrderItemID)

	input := f.createInput(1)
	input.Items = []ReturnItemInput{{OrderItemID: installation.ID, Quantity: 1}}
	_, err = f.services.Returns.CreateReturnRequest(f.ctx, input)

	var validation *errors.ErrValidation
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "service items cannot be returned", validation.Message)
}

func TestCheckEligibility_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Eligibility.CheckEligibility(f.ctx, uuid.New())
	assert.True(t, errors.IsNotFound(err))
}
