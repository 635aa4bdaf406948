package cobre

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/config"
)

var (
	ErrNotConfigured = errors.New("cobre credentials are not configured")
	ErrNoBalanceID   = errors.New("cobre balance account is not configured")
)

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cobre api error: status=%d body=%s", e.StatusCode, e.Body)
}

// BankData is what an artisan submits to get paid.
type BankData struct {
	HolderName     string `json:"holder_name" validate:"required"`
	DocumentType   string `json:"document_type" validate:"required"`
	DocumentNumber string `json:"document_number" validate:"required"`
	BankCode       string `json:"bank_code" validate:"required"`
	AccountType    string `json:"account_type" validate:"required"`
	AccountNumber  string `json:"account_number" validate:"required"`
}

// Complete reports whether every field is set.
func (b BankData) Complete() bool {
	for _, v := range []string{b.HolderName, b.DocumentType, b.DocumentNumber, b.BankCode, b.AccountType, b.AccountNumber} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

type Balance struct {
	Available   float64                `json:"available"`
	Pending     float64                `json:"pending"`
	Currency    string                 `json:"currency"`
	LastUpdated time.Time              `json:"lastUpdated"`
	Raw         map[string]interface{} `json:"raw,omitempty"`
}

type Client struct {
	baseURL    string
	userID     string
	secret     string
	balanceID  string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.CobreConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userID:     cfg.UserID,
		secret:     cfg.Secret,
		balanceID:  cfg.BalanceID,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *Client) Enabled() bool {
	return c.userID != "" && c.secret != ""
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached token, refreshing it a minute before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var resp authResponse
	body := map[string]string{"user_id": c.userID, "secret": c.secret}
	if err := c.do(ctx, http.MethodPost, "/v1/auth", "", body, &resp); err != nil {
		return "", fmt.Errorf("cobre auth: %w", err)
	}
	if resp.AccessToken == "" {
		return "", errors.New("cobre auth: empty access token")
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	c.token = resp.AccessToken
	c.tokenExpiry = c.now().Add(ttl - time.Minute)
	return c.token, nil
}

type counterpartyRequest struct {
	Geo      string            `json:"geo"`
	Type     string            `json:"type"`
	Alias    string            `json:"alias"`
	Metadata map[string]string `json:"metadata"`
}

// CreateCounterparty registers a payee account and returns its id.
func (c *Client) CreateCounterparty(ctx context.Context, data BankData) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	req := counterpartyRequest{
		Geo:   "col",
		Type:  "payee",
		Alias: data.HolderName,
		Metadata: map[string]string{
			"counterparty_fullname":   data.HolderName,
			"counterparty_id_type":    data.DocumentType,
			"counterparty_id_number":  data.DocumentNumber,
			"beneficiary_institution": data.BankCode,
			"registered_account":      data.AccountType,
			"account_number":          data.AccountNumber,
		},
	}

	var resp struct {
		ID             string `json:"id"`
		CounterpartyID string `json:"counterparty_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/counterparties", token, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create counterparty: %w", err)
	}

	id := resp.ID
	if id == "" {
		id = resp.CounterpartyID
	}
	if id == "" {
		return "", errors.New("cobre returned no counterparty id")
	}

	logrus.WithField("counterparty_id", id).Info("Cobre counterparty created")
	return id, nil
}

// GetBalance reads the platform account. Amounts come in cents.
func (c *Client) GetBalance(ctx context.Context) (*Balance, error) {
	if c.balanceID == "" {
		return nil, ErrNoBalanceID
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	path := "/v1/accounts/" + c.balanceID + "?sensitive_data=true"
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get cobre account: %w", err)
	}
	return ParseBalance(raw, c.now()), nil
}

// ParseBalance converts a Cobre account payload into units.
func ParseBalance(raw map[string]interface{}, now time.Time) *Balance {
	currency, _ := raw["currency"].(string)
	if currency == "" {
		currency = "COP"
	}
	return &Balance{
		Available:   firstNumber(raw, "obtained_balance", "balance", "available") / 100,
		Pending:     firstNumber(raw, "pending_balance", "pending") / 100,
		Currency:    currency,
		LastUpdated: now,
		Raw:         raw,
	}
}

func firstNumber(raw map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := raw[k].(float64); ok && v != 0 {
			return v
		}
	}
	return 0
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
