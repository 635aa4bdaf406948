package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/time/rate"

	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRoles struct {
	roles map[uuid.UUID][]models.Role
	err   error
}

func (f *fakeRoles) HasRole(ctx context.Context, userID uuid.UUID, roles ...models.Role) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, held := range f.roles[userID] {
		if held == models.RoleAdmin {
			return true, nil
		}
		for _, want := range roles {
			if held == want {
				return true, nil
			}
		}
	}
	return false, nil
}

func TestPreferredLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "es"},
		{"en-US,en;q=0.9", "en"},
		{"es-CO,es;q=0.9,en;q=0.5", "es"},
		{"fr-FR", "es"},
		{"fr;q=0.9, en;q=0.8", "en"},
		{"not a header;;", "es"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, PreferredLanguage(tt.header))
		})
	}
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := utils.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/x", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	userID := uuid.New()
	token, err := utils.GenerateJWT(userID, "a@example.com", false, 1)
	require.NoError(t, err)

	r := newRouter(AuthRequired())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	w := get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestOptionalAuthIgnoresBadTokens(t *testing.T) {
	r := newRouter(OptionalAuth())
	w := get(r, "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), uuid.Nil.String())
}

func TestRoleRequired(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	admin, moderator, owner := uuid.New(), uuid.New(), uuid.New()
	checker := &fakeRoles{roles: map[uuid.UUID][]models.Role{
		admin:     {models.RoleAdmin},
		moderator: {models.RoleModerator},
		owner:     {models.RoleShopOwner},
	}}
	r := newRouter(AuthRequired(), RoleRequired(checker, models.RoleModerator))

	for id, want := range map[uuid.UUID]int{
		admin:     http.StatusOK,
		moderator: http.StatusOK,
		owner:     http.StatusForbidden,
	} {
		token, err := utils.GenerateJWT(id, "", false, 1)
		require.NoError(t, err)
		assert.Equal(t, want, get(r, token).Code)
	}

	checker.err = errors.New("db down")
	token, _ := utils.GenerateJWT(admin, "", false, 1)
	assert.Equal(t, http.StatusInternalServerError, get(r, token).Code)
}

func TestRateLimiterRejectsBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Hour), 2)
	r := newRouter(rl.Middleware())

	assert.Equal(t, http.StatusOK, get(r, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "").Code)

	w := get(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiterEviction(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	rl.getVisitor("10.0.0.1")
	rl.evict(time.Now().Add(time.Minute))
	assert.Len(t, rl.visitors, 1)
	rl.evict(time.Now().Add(10 * time.Minute))
	assert.Empty(t, rl.visitors)
}

func TestLimitersStopWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	DefaultLimiters().Run(ctx)
	cancel()
	time.Sleep(50 * time.Millisecond)
}

func TestExtractResource(t *testing.T) {
	id := uuid.New().String()
	assert.Equal(t, "products", extractResourceType("/api/v1/products/"+id))
	assert.Equal(t, "health", extractResourceType("/health"))
	assert.Equal(t, id, extractResourceID("/api/v1/products/"+id+"/images"))
	assert.Equal(t, "", extractResourceID("/api/v1/shops/me"))
	assert.True(t, skipAudit("/api/v1/auth/login"))
	assert.False(t, skipAudit("/api/v1/products"))
}
