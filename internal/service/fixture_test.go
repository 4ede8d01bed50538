package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/returnsapi/internal/config"
	"github.com/jafarshop/returnsapi/internal/domain"
	"github.com/jafarshop/returnsapi/internal/events"
	"github.com/jafarshop/returnsapi/internal/mailer"
	"github.com/jafarshop/returnsapi/internal/razorpay"
	"github.com/jafarshop/returnsapi/internal/repository"
	"github.com/jafarshop/returnsapi/internal/repository/memory"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

const operatorName = "warehouse-desk"

type fakeGateway struct {
	mu         sync.Mutex
	calls      []razorpay.RefundRequest
	paymentIDs []string
	status     string
	delay      time.Duration
	err        error
}

func (g *fakeGateway) RefundPayment(_ context.Context, paymentID string, req razorpay.RefundRequest) (*razorpay.Refund, error) {
	time.Sleep(g.delay)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls = append(g.calls, req)
	g.paymentIDs = append(g.paymentIDs, paymentID)

	status := g.status
	if status == "" {
		status = "pending"
	}
	return &razorpay.Refund{
		ID:        "rfnd_test0001",
		Entity:    "refund",
		Amount:    req.Amount,
		Currency:  "INR",
		PaymentID: paymentID,
		Status:    status,
	}, nil
}

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingPublisher struct {
	events []events.ReturnEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.ReturnEvent) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	repos     *repository.Repositories
	services  *Services
	gateway   *fakeGateway
	mailer    *fakeMailer
	publisher *recordingPublisher

	customer domain.Customer
	order    domain.Order
	item     domain.OrderItem
}

// newFixture seeds one customer with a prepaid order delivered two days ago:
// a single line of two units at 1000 each.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		ctx:       context.Background(),
		store:     store,
		repos:     memory.NewRepositories(store),
		gateway:   &fakeGateway{},
		mailer:    &fakeMailer{},
		publisher: &recordingPublisher{},
	}

	f.customer = domain.Customer{
		ID:        uuid.New(),
		Email:     "asha@example.com",
		FullName:  "Asha Rao",
		CreatedAt: fixedNow.Add(-30 * 24 * time.Hour),
	}
	store.PutCustomer(f.customer)

	deliveredAt := fixedNow.Add(-48 * time.Hour)
	paymentID := "pay_test0001"
	f.order = domain.Order{
		ID:               uuid.New(),
		OrderNumber:      "ORD-1001",
		CustomerID:       f.customer.ID,
		Status:           domain.OrderStatusDelivered,
		PaymentStatus:    domain.PaymentStatusPaid,
		PaymentMethod:    domain.PaymentMethodRazorpay,
		GatewayPaymentID: &paymentID,
		TotalAmount:      decimal.NewFromInt(2000),
		DeliveredAt:      &deliveredAt,
		CreatedAt:        fixedNow.Add(-5 * 24 * time.Hour),
		UpdatedAt:        deliveredAt,
	}
	f.item = domain.OrderItem{
		ID:          uuid.New(),
		OrderID:     f.order.ID,
		ProductID:   uuid.New(),
		ProductName: "Running Shoes",
		ItemType:    domain.ItemTypeProduct,
		Quantity:    2,
		UnitPrice:   decimal.NewFromInt(1000),
		TotalPrice:  decimal.NewFromInt(2000),
	}
	store.PutOrder(f.order, []domain.OrderItem{f.item})

	cfg := &config.Config{Returns: config.ReturnsConfig{
		WindowDays:   7,
		StoreName:    "Test Store",
		SupportEmail: "support@test.example",
	}}
	f.services = newServices(cfg, f.repos, f.gateway, f.mailer, f.publisher, zap.NewNop(), func() time.Time { return fixedNow })
	return f
}

// updateOrder rewrites the seeded order and keeps its single line item
func (f *fixture) updateOrder(mutate func(o *domain.Order)) {
	mutate(&f.order)
	f.store.PutOrder(f.order, []domain.OrderItem{f.item})
}

func (f *fixture) createInput(quantity int) CreateReturnRequest {
	return CreateReturnRequest{
		OrderID:     f.order.ID,
		Reason:      domain.ReasonSizeIssue,
		Description: "Too small",
		Items:       []ReturnItemInput{{OrderItemID: f.item.ID, Quantity: quantity}},
		CustomerID:  f.customer.ID,
	}
}

func (f *fixture) createReturn(t *testing.T, quantity int) *domain.ReturnRequestWithItems {
	t.Helper()
	created, err := f.services.Returns.CreateReturnRequest(f.ctx, f.createInput(quantity))
	require.NoError(t, err)
	return created
}

func (f *fixture) setAddress(t *testing.T, id uuid.UUID) {
	t.Helper()
	_, err := f.services.Returns.UpdateReturnAddress(f.ctx, id, ReturnAddressRequest{
		Line1:      "Unit 4, Returns Hub",
		City:       "Bengaluru",
		State:      "KA",
		PostalCode: "560001",
		Country:    "IN",
	}, operatorName)
	require.NoError(t, err)
}

// receive walks a fresh return up to received
func (f *fixture) receive(t *testing.T, id uuid.UUID) {
	t.Helper()
	f.setAddress(t, id)
	_, err := f.services.Returns.MarkAsShipped(f.ctx, id, f.customer.ID, ShipReturnRequest{
		TrackingNumber: "TRK123",
		CourierName:    "BlueDart",
	})
	require.NoError(t, err)
	_, err = f.services.Returns.MarkAsReceived(f.ctx, id, operatorName)
	require.NoError(t, err)
}

func (f *fixture) inspect(t *testing.T, created *domain.ReturnRequestWithItems, conditions ...domain.ItemCondition) *domain.ReturnRequestWithItems {
	t.Helper()
	require.Len(t, conditions, len(created.Items))

	verdicts := make([]ItemInspection, 0, len(conditions))
	for i, c := range conditions {
		verdicts = append(verdicts, ItemInspection{ItemID: created.Items[i].ID, Condition: c})
	}
	result, err := f.services.Inspection.CompleteInspection(f.ctx, created.ID, CompleteInspectionRequest{Items: verdicts}, operatorName)
	require.NoError(t, err)
	return result
}

var errBoom = errors.New("boom")
