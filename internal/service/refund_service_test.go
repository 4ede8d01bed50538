package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/pkg/errors"
)

func approvedReturn(t *testing.T, f *fixture) *domain.ReturnRequestWithItems {
	t.Helper()
	created := f.createReturn(t, 2)
	f.receive(t, created.ID)
	return f.inspect(t, created, domain.ConditionGood)
}

func TestInitiateRefund_UsesCalculatedAmount(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)

	txn, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{Notes: "good condition"}, operatorName)
	require.NoError(t, err)

	require.Len(t, f.gateway.calls, 1)
	call := f.gateway.calls[0]
	assert.Equal(t, int64(190000), call.Amount)
	assert.Equal(t, txn.TransactionNumber, call.Receipt)
	assert.Equal(t, approved.ReturnNumber, call.Notes["return_number"])
	assert.Equal(t, "good condition", call.Notes["notes"])
	assert.Equal(t, []string{"pay_test0001"}, f.gateway.paymentIDs)

	assert.Equal(t, "1900.00", txn.RefundAmount.StringFixed(2))
	assert.Equal(t, domain.RefundStatusPending, txn.Status)
	require.NotNil(t, txn.RazorpayRefundID)
	assert.Equal(t, "rfnd_test0001", *txn.RazorpayRefundID)
	assert.Nil(t, txn.ProcessedAt)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRefundInitiated, stored.Status)
	assert.Equal(t, "1900.00", stored.FinalRefundAmount.StringFixed(2))
}

func TestInitiateRefund_AmountOverride(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	amount := decimal.RequireFromString("1500.499")

	txn, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{Amount: &amount}, operatorName)
	require.NoError(t, err)

	assert.Equal(t, "1500.50", txn.RefundAmount.StringFixed(2))
	assert.Equal(t, int64(150050), f.gateway.calls[0].Amount)
}

func TestInitiateRefund_InvalidAmounts(t *testing.T) {
	for _, raw := range []string{"0", "-5", "2000.01"} {
		t.Run(raw, func(t *testing.T) {
			f := newFixture(t)
			approved := approvedReturn(t, f)
			amount := decimal.RequireFromString(raw)

			_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{Amount: &amount}, operatorName)

			var validation *errors.ErrValidation
			require.True(t, errors.As(err, &validation), "got %v", err)
			assert.Equal(t, "amount", validation.Field)
			assert.Empty(t, f.gateway.calls)
		})
	}
}

func TestInitiateRefund_PartiallyApproved(t *testing.T) {
	f := newFixture(t)
	created := createTwoItemReturn(t, f)
	f.receive(t, created.ID)
	f.inspect(t, created, domain.ConditionNotReceived, domain.ConditionGood)

	// only the 200 item came back, less 5%
	txn, err := f.services.Refunds.InitiateRefund(f.ctx, created.ID, InitiateRefundRequest{}, operatorName)
	require.NoError(t, err)
	assert.Equal(t, "190.00", txn.RefundAmount.StringFixed(2))
}

func TestInitiateRefund_ManualRefundForCashOnDelivery(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.updateOrder(func(o *domain.Order) {
		o.PaymentMethod = domain.PaymentMethodCOD
		o.GatewayPaymentID = nil
	})

	_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	assert.ErrorIs(t, err, errors.ErrManualRefundRequired)
	assert.Empty(t, f.gateway.calls)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusApproved, stored.Status)
}

func TestInitiateRefund_GatewayFailureLeavesStatus(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.gateway.err = errBoom

	_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	assert.ErrorIs(t, err, errors.ErrGateway)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusApproved, stored.Status)

	_, err = f.repos.RefundTransaction.GetLatestByReturnRequestID(f.ctx, approved.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestInitiateRefund_RequiresDecision(t *testing.T) {
	f := newFixture(t)
	created := f.createReturn(t, 1)
	f.receive(t, created.ID)

	_, err := f.services.Refunds.InitiateRefund(f.ctx, created.ID, InitiateRefundRequest{}, operatorName)

	var transition *errors.ErrInvalidStateTransition
	require.True(t, errors.As(err, &transition), "got %v", err)
	assert.Equal(t, string(domain.ReturnStatusRefundInitiated), transition.To)
	assert.Empty(t, f.gateway.calls)
}

func TestInitiateRefund_RejectedReturn(t *testing.T) {
	f := newFixture(t)
	created := f.createReturn(t, 1)
	f.receive(t, created.ID)
	f.inspect(t, created, domain.ConditionNotReceived)

	_, err := f.services.Refunds.InitiateRefund(f.ctx, created.ID, InitiateRefundRequest{}, operatorName)

	var transition *errors.ErrInvalidStateTransition
	assert.True(t, errors.As(err, &transition), "got %v", err)
}

func TestConfirmRefund(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	require.NoError(t, err)

	wrong := "rfnd_other"
	_, err = f.services.Refunds.ConfirmRefund(f.ctx, approved.ID, ConfirmRefundRequest{GatewayRefundID: &wrong}, operatorName)
	var validation *errors.ErrValidation
	require.True(t, errors.As(err, &validation), "got %v", err)

	txn, err := f.services.Refunds.ConfirmRefund(f.ctx, approved.ID, ConfirmRefundRequest{}, operatorName)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, txn.Status)
	require.NotNil(t, txn.ProcessedAt)
	assert.Equal(t, fixedNow, *txn.ProcessedAt)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRefundCompleted, stored.Status)
	assert.True(t, stored.Status.IsTerminal())

	latest, err := f.repos.RefundTransaction.GetLatestByReturnRequestID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, latest.Status)

	_, err = f.services.Refunds.ConfirmRefund(f.ctx, approved.ID, ConfirmRefundRequest{}, operatorName)
	var transition *errors.ErrInvalidStateTransition
	assert.True(t, errors.As(err, &transition))
}

func TestInitiateRefund_ProcessedByGateway(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.gateway.status = "processed"

	txn, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundStatusProcessed, txn.Status)
	assert.NotNil(t, txn.ProcessedAt)
}

func TestInitiateRefund_GatewayReportsFailure(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.gateway.status = "failed"

	_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	assert.ErrorIs(t, err, errors.ErrGateway)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusApproved, stored.Status)
	require.NotNil(t, stored.FinalRefundAmount)
	assert.Equal(t, "1900.00", stored.FinalRefundAmount.StringFixed(2))

	_, err = f.repos.RefundTransaction.GetLatestByReturnRequestID(f.ctx, approved.ID)
	assert.True(t, errors.IsNotFound(err))

	// the released return can be refunded once the gateway recovers
	f.gateway.status = ""
	_, err = f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	require.NoError(t, err)
}

func TestInitiateRefund_ConcurrentCallsRefundOnce(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.gateway.delay = 50 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var transition *errors.ErrInvalidStateTransition
		assert.True(t, errors.As(err, &transition), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.gateway.calls, 1)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRefundInitiated, stored.Status)
}

type failingRefundRepo struct {
	repository.RefundTransactionRepository
}

func (failingRefundRepo) Create(context.Context, *domain.RefundTransaction) error {
	return errBoom
}

func TestInitiateRefund_RecordFailureKeepsClaim(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	f.repos.RefundTransaction = failingRefundRepo{RefundTransactionRepository: f.repos.RefundTransaction}

	_, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	assert.ErrorIs(t, err, errBoom)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRefundInitiated, stored.Status)

	// a retry must not reach the gateway a second time
	_, err = f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	var transition *errors.ErrInvalidStateTransition
	assert.True(t, errors.As(err, &transition), "got %v", err)
	assert.Len(t, f.gateway.calls, 1)
}

func TestConfirmRefund_RejectsFailedTransaction(t *testing.T) {
	f := newFixture(t)
	approved := approvedReturn(t, f)
	txn, err := f.services.Refunds.InitiateRefund(f.ctx, approved.ID, InitiateRefundRequest{}, operatorName)
	require.NoError(t, err)

	txn.Status = domain.RefundStatusFailed
	require.NoError(t, f.repos.RefundTransaction.Update(f.ctx, txn))

	_, err = f.services.Refunds.ConfirmRefund(f.ctx, approved.ID, ConfirmRefundRequest{}, operatorName)
	var validation *errors.ErrValidation
	require.True(t, errors.As(err, &validation), "got %v", err)
	assert.Equal(t, "refund_transaction", validation.Field)

	stored, err := f.repos.ReturnRequest.GetByID(f.ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReturnStatusRefundInitiated, stored.Status)
}
