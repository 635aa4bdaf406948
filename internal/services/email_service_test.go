package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

func TestRenderOTPEmail(t *testing.T) {
	svc := NewEmailServiceWithMailer(testConfig(), &MockMailer{})

	html, err := svc.Render("otp.html", emailData{Title: "Tu código", Code: "482913", ExpiresIn: "10 minutos"})
	require.NoError(t, err)
	assert.Contains(t, html, "482913")
	assert.Contains(t, html, "10 minutos")
	assert.Contains(t, html, "Artesanos")
}

func TestSendOTPEmailUsesMailer(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.OTPTTL = 10 * time.Minute
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, "a@b.co", "Tu código de acceso", mock.MatchedBy(func(html string) bool {
		return strings.Contains(html, "123456") && strings.Contains(html, "10 minutos")
	})).Return(nil)

	svc := NewEmailServiceWithMailer(cfg, mailer)
	require.NoError(t, svc.SendOTPEmail(context.Background(), "a@b.co", "123456"))
	mailer.AssertExpectations(t)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "10 minutos", humanDuration(10*time.Minute))
	assert.Equal(t, "2 horas", humanDuration(2*time.Hour))
	assert.Equal(t, "24 horas", humanDuration(24*time.Hour))
	assert.Equal(t, "3 días", humanDuration(72*time.Hour))
	assert.Equal(t, "36 horas", humanDuration(36*time.Hour))
}
