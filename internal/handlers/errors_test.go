package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = i18n.Initialize("")
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) utils.APIError {
	t.Helper()
	var resp struct {
		Success bool           `json:"success"`
		Error   utils.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp.Error
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"shop not found", services.ErrShopNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped product not found", fmt.Errorf("load: %w", services.ErrProductNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unverified email", services.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
		{"banned", services.ErrAccountBanned, http.StatusForbidden, "FORBIDDEN"},
		{"duplicate user", services.ErrUserExists, http.StatusConflict, "CONFLICT"},
		{"product locked", services.ErrProductNotEditable, http.StatusConflict, "NOT_EDITABLE"},
		{"bank off", services.ErrBankUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"ai off", services.ErrAIUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"stripe off", services.ErrPaymentUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"empty cart", services.ErrCartEmpty, http.StatusBadRequest, "BAD_REQUEST"},
		{"file too large", services.ErrFileTooLarge, http.StatusBadRequest, "BAD_REQUEST"},
		{"ban admin", services.ErrBanAdmin, http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestRespondErrorRateLimited(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(c, &services.RateLimitError{RetryAfter: 1500 * time.Millisecond})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, w).Code)
}

func TestPathID(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/11111111-1111-1111-1111-111111111111", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", w.Body.String())
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := currentUser(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Nil(t, viewerID(c))
}
