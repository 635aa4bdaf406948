package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/clients/cobre"
)

type MockCounterparties struct {
	mock.Mock
}

func (m *MockCounterparties) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockCounterparties) CreateCounterparty(ctx context.Context, data cobre.BankData) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *MockCounterparties) GetBalance(ctx context.Context) (*cobre.Balance, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).(*cobre.Balance)
	return b, args.Error(1)
}

func TestPlatformBalance(t *testing.T) {
	client := &MockCounterparties{}
	client.On("Enabled").Return(true)
	client.On("GetBalance", mock.Anything).Return(&cobre.Balance{
		Available:   1250.5,
		Currency:    "COP",
		LastUpdated: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	svc := NewBankService(nil, client, &recordingBus{})
	bal, err := svc.PlatformBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1250.5, bal.Available)
	client.AssertExpectations(t)
}

func TestPlatformBalanceUnavailable(t *testing.T) {
	client := &MockCounterparties{}
	client.On("Enabled").Return(false)

	svc := NewBankService(nil, client, &recordingBus{})
	_, err := svc.PlatformBalance(context.Background())
	assert.True(t, errors.Is(err, ErrBankUnavailable))
	client.AssertNotCalled(t, "GetBalance", mock.Anything)

	_, err = NewBankService(nil, nil, &recordingBus{}).PlatformBalance(context.Background())
	assert.True(t, errors.Is(err, ErrBankUnavailable))
}
