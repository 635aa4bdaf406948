package cobre

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/config"
)

type fakeCobre struct {
	authCalls int32
	lastBody  map[string]interface{}
}

func (f *fakeCobre) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/auth":
			atomic.AddInt32(&f.authCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok", "expires_in": 3600})
		case r.URL.Path == "/v1/counterparties":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
			_ = json.NewEncoder(w).Encode(map[string]string{"counterparty_id": "cp_123"})
		case r.URL.Path == "/v1/accounts/acc_1":
			assert.Equal(t, "true", r.URL.Query().Get("sensitive_data"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"obtained_balance": 1234500, "pending_balance": 5000})
		default:
			http.NotFound(w, r)
		}
	}
}

func newTestClient(t *testing.T, f *fakeCobre) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(config.CobreConfig{BaseURL: srv.URL, UserID: "u", Secret: "s", BalanceID: "acc_1", Timeout: 2 * time.Second})
}

func validBankData() BankData {
	return BankData{
		HolderName: "Ana Pérez", DocumentType: "cc", DocumentNumber: "1020",
		BankCode: "1007", AccountType: "savings", AccountNumber: "0001",
	}
}

func TestCreateCounterparty(t *testing.T) {
	f := &fakeCobre{}
	client := newTestClient(t, f)

	id, err := client.CreateCounterparty(context.Background(), validBankData())
	require.NoError(t, err)
	assert.Equal(t, "cp_123", id)

	assert.Equal(t, "col", f.lastBody["geo"])
	assert.Equal(t, "payee", f.lastBody["type"])
	assert.Equal(t, "Ana Pérez", f.lastBody["alias"])
	meta := f.lastBody["metadata"].(map[string]interface{})
	assert.Equal(t, "1007", meta["beneficiary_institution"])
	assert.Equal(t, "savings", meta["registered_account"])
}

func TestTokenIsCached(t *testing.T) {
	f := &fakeCobre{}
	client := newTestClient(t, f)

	_, err := client.CreateCounterparty(context.Background(), validBankData())
	require.NoError(t, err)
	_, err = client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.authCalls))

	client.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.authCalls))
}

func TestGetBalanceConvertsCents(t *testing.T) {
	client := newTestClient(t, &fakeCobre{})

	b, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12345.0, b.Available)
	assert.Equal(t, 50.0, b.Pending)
	assert.Equal(t, "COP", b.Currency)
}

func TestParseBalanceFallbacks(t *testing.T) {
	now := time.Now()
	b := ParseBalance(map[string]interface{}{"balance": 900.0, "currency": "USD"}, now)
	assert.Equal(t, 9.0, b.Available)
	assert.Equal(t, 0.0, b.Pending)
	assert.Equal(t, "USD", b.Currency)
	assert.Equal(t, now, b.LastUpdated)
}

func TestAPIErrorsSurface(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad secret"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	client := NewClient(config.CobreConfig{BaseURL: srv.URL, UserID: "u", Secret: "bad"})

	_, err := client.CreateCounterparty(context.Background(), validBankData())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMissingConfiguration(t *testing.T) {
	_, err := NewClient(config.CobreConfig{}).CreateCounterparty(context.Background(), validBankData())
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(config.CobreConfig{UserID: "u", Secret: "s"}).GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrNoBalanceID)

	assert.False(t, BankData{HolderName: "x"}.Complete())
	assert.True(t, validBankData().Complete())
}
