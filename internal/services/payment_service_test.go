package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/models"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*IntentResult)
	return res, args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(*WebhookEvent)
	return ev, args.Error(1)
}

func TestCheckoutAmounts(t *testing.T) {
	charges, total := CheckoutAmounts(10000, 1000)
	assert.Equal(t, int64(1000), charges)
	assert.Equal(t, int64(11000), total)

	// half a minor unit rounds up
	charges, total = CheckoutAmounts(12345, 250)
	assert.Equal(t, int64(309), charges)
	assert.Equal(t, int64(12654), total)

	charges, total = CheckoutAmounts(5000, 0)
	assert.Equal(t, int64(0), charges)
	assert.Equal(t, int64(5000), total)
}

func TestSettlementLinesBalance(t *testing.T) {
	shopA := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	shopB := uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000002")
	gross := map[uuid.UUID]int64{shopB: 30000, shopA: 70000}
	charges, total := CheckoutAmounts(100000, 1000)

	lines := SettlementLines(total, charges, gross)
	require.Len(t, lines, 4)
	assert.True(t, Balanced(lines))

	assert.Equal(t, models.LedgerAccountClearing, lines[0].AccountType)
	assert.Equal(t, int64(110000), lines[0].AmountMinor)
	assert.Nil(t, lines[0].OwnerID)

	// shops are ordered for stable output
	assert.Equal(t, shopA, *lines[1].OwnerID)
	assert.Equal(t, int64(-70000), lines[1].AmountMinor)
	assert.Equal(t, models.LedgerAccountPending, lines[1].AccountType)
	assert.Equal(t, shopB, *lines[2].OwnerID)

	assert.Equal(t, models.LedgerAccountRevenue, lines[3].AccountType)
	assert.Equal(t, int64(-10000), lines[3].AmountMinor)
}

func TestSettlementLinesWithoutCommission(t *testing.T) {
	shop := uuid.New()
	lines := SettlementLines(5000, 0, map[uuid.UUID]int64{shop: 5000})
	require.Len(t, lines, 2)
	assert.True(t, Balanced(lines))
}

func TestBalanced(t *testing.T) {
	assert.True(t, Balanced(nil))
	assert.False(t, Balanced([]LedgerLine{{AmountMinor: 10}, {AmountMinor: -9}}))
}

func TestPaymentsUnavailableWithoutGateway(t *testing.T) {
	svc := NewPaymentService(nil, testConfig(), nil, &recordingBus{})
	ctx := context.Background()

	_, err := svc.Checkout(ctx, testUserID, &CheckoutRequest{})
	assert.True(t, errors.Is(err, ErrPaymentUnavailable))

	err = svc.HandleWebhook(ctx, []byte(`{}`), "sig")
	assert.True(t, errors.Is(err, ErrPaymentUnavailable))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	gw := &MockGateway{}
	gw.On("ParseWebhook", []byte(`{}`), "bad").Return(nil, ErrInvalidWebhook)

	svc := NewPaymentService(nil, testConfig(), gw, &recordingBus{})
	err := svc.HandleWebhook(context.Background(), []byte(`{}`), "bad")
	assert.True(t, errors.Is(err, ErrInvalidWebhook))
	gw.AssertExpectations(t)
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	gw := &MockGateway{}
	gw.On("ParseWebhook", mock.Anything, "sig").Return(&WebhookEvent{Type: "charge.refunded"}, nil)

	bus := &recordingBus{}
	svc := NewPaymentService(nil, testConfig(), gw, bus)
	require.NoError(t, svc.HandleWebhook(context.Background(), []byte(`{"type":"charge.refunded"}`), "sig"))
	assert.Empty(t, bus.names())
}
