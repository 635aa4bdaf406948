package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSafeErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		es   string
		en   string
	}{
		{"pgx unique", &pgconn.PgError{Code: "23505"}, "Este registro ya existe", "This record already exists"},
		{"pq foreign key", &pq.Error{Code: "23503"}, "Referencia inválida", "Invalid reference"},
		{"wrapped not null", fmt.Errorf("failed to create shop: %w", &pgconn.PgError{Code: "23502"}), "Campo requerido faltante", "Required field missing"},
		{"permission", &pgconn.PgError{Code: "42501"}, "No tienes permisos para realizar esta acción", "Permission denied"},
		{"check", &pq.Error{Code: "23514"}, "Datos inválidos", "Invalid data"},
		{"too long", &pgconn.PgError{Code: "22001"}, "El texto es demasiado largo", "Text too long"},
		{"bad format", &pgconn.PgError{Code: "22P02"}, "Formato de datos inválido", "Invalid data format"},
		{"not found", gorm.ErrRecordNotFound, "No se encontró el recurso", "Resource not found"},
		{"unknown", errors.New("connection refused at 10.0.0.3"), "Ocurrió un error. Por favor intenta nuevamente.", "An error occurred. Please try again."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.es, SafeErrorMessage(tc.err, "es"))
			assert.Equal(t, tc.en, SafeErrorMessage(tc.err, "en"))
			assert.Equal(t, tc.es, SafeErrorMessage(tc.err, "fr"))
		})
	}
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", gorm.ErrRecordNotFound)))
	assert.True(t, IsConflict(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsClientDataError(&pq.Error{Code: "22P02"}))
	assert.Equal(t, "FORBIDDEN", ErrorCode(&pgconn.PgError{Code: "42501"}))
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(errors.New("boom")))
	assert.Equal(t, "", PostgresCode(nil))
}

type validated struct {
	Slug string `validate:"required,slug"`
	NIT  string `validate:"omitempty,nit"`
	OTP  string `validate:"omitempty,otp_code"`
}

func TestCustomValidators(t *testing.T) {
	assert.NoError(t, ValidateStruct(validated{Slug: "tejidos-del-cauca", NIT: "900123456-7", OTP: "012345"}))
	assert.NoError(t, ValidateStruct(validated{Slug: "a1", NIT: "900.123.456"}))

	err := ValidateStruct(validated{Slug: "Tejidos Cauca", NIT: "abc", OTP: "12345"})
	require.Error(t, err)
	fields := map[string]string{}
	for _, v := range GetValidationErrors(err) {
		fields[v.Field] = v.Tag
	}
	assert.Equal(t, map[string]string{"slug": "slug", "nit": "nit", "otp": "otp_code"}, fields)
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	access, err := GenerateJWT(userID, "ana@example.com", false, 1)
	require.NoError(t, err)
	claims, err := ValidateJWT(access)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)

	refresh, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)
	got, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = ValidateJWT(refresh)
	assert.Error(t, err, "refresh token must not pass as access token")
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestExpiredJWT(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT(uuid.New(), "a@b.co", false, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tejidos-del-cauca", Slugify("  Tejidos del Cauca! "))
	assert.Equal(t, "ceramica-nino-jesus", Slugify("Cerámica Niño Jesús"))
	assert.Equal(t, "", Slugify("***"))
}

func TestNormalizePagination(t *testing.T) {
	p := NormalizePagination(PaginationParams{Page: -1, Limit: 500, Order: "sideways"})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, "desc", p.Order)
	assert.Equal(t, "created_at", p.Sort)

	r := CreatePaginationResult(nil, 41, p)
	assert.Equal(t, 3, r.TotalPages)
}
