package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/models"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

// Mailer delivers one rendered message.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendMailer struct {
	client *resend.Client
	from   string
}

func (m *resendMailer) Send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Html:    html,
		Subject: subject,
	})
	return err
}

// logMailer is used when no Resend key is configured.
type logMailer struct{}

func (logMailer) Send(ctx context.Context, to, subject, html string) error {
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not configured, skipping delivery")
	return nil
}

type EmailService struct {
	mailer Mailer
	cfg    *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	var mailer Mailer = logMailer{}
	if cfg.Email.ResendAPIKey != "" {
		mailer = &resendMailer{
			client: resend.NewClient(cfg.Email.ResendAPIKey),
			from:   fmt.Sprintf("%s <%s>", cfg.Email.FromName, cfg.Email.FromEmail),
		}
	}
	return NewEmailServiceWithMailer(cfg, mailer)
}

func NewEmailServiceWithMailer(cfg *config.Config, mailer Mailer) *EmailService {
	return &EmailService{mailer: mailer, cfg: cfg}
}

type emailData struct {
	Title        string
	PlatformName string
	Name         string
	Link         string
	Code         string
	ExpiresIn    string
	Message      string
	Comment      string
}

// Render executes the layout with one content template.
func (s *EmailService) Render(name string, data emailData) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/layout.html", "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse email templates: %w", err)
	}
	if data.PlatformName == "" {
		data.PlatformName = s.cfg.Email.FromName
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

func (s *EmailService) send(ctx context.Context, to, subject, name string, data emailData) error {
	data.Title = subject
	html, err := s.Render(name, data)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, to, subject, html); err != nil {
		return fmt.Errorf("failed to send %s email: %w", name, err)
	}
	return nil
}

func (s *EmailService) SendVerificationEmail(ctx context.Context, to, name, token string) error {
	return s.send(ctx, to, "Verifica tu correo", "verification.html", emailData{
		Name:      name,
		Link:      fmt.Sprintf("%s/verify-email?token=%s", s.cfg.Frontend.BaseURL, token),
		ExpiresIn: humanDuration(s.cfg.Engine.VerificationTTL),
	})
}

func (s *EmailService) SendOTPEmail(ctx context.Context, to, code string) error {
	return s.send(ctx, to, "Tu código de acceso", "otp.html", emailData{
		Code:      code,
		ExpiresIn: humanDuration(s.cfg.Engine.OTPTTL),
	})
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, name, token string) error {
	return s.send(ctx, to, "Cambia tu contraseña", "password_reset.html", emailData{
		Name:      name,
		Link:      fmt.Sprintf("%s/reset-password?token=%s", s.cfg.Frontend.BaseURL, token),
		ExpiresIn: humanDuration(passwordResetTTL),
	})
}

func (s *EmailService) SendModerationEmail(ctx context.Context, to, title, message, comment string) error {
	return s.send(ctx, to, title, "moderation.html", emailData{
		Message: message,
		Comment: comment,
		Link:    s.cfg.Frontend.BaseURL + "/mi-tienda/productos",
	})
}

func (s *EmailService) SendMilestoneEmail(ctx context.Context, to, title, message string) error {
	return s.send(ctx, to, title, "milestone.html", emailData{
		Message: message,
		Link:    s.cfg.Frontend.BaseURL + "/dashboard",
	})
}

// emailForUser skips anonymous accounts.
func emailForUser(u *models.User) (string, bool) {
	if u == nil || u.Email == "" || u.IsAnonymous {
		return "", false
	}
	return u.Email, true
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 horas"
		}
		return fmt.Sprintf("%d días", days)
	case d >= time.Hour:
		return fmt.Sprintf("%d horas", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutos", int(d/time.Minute))
	}
}
