// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/state"
	"github.com/javajoker/artisans-backend/internal/utils"
)

const (
	passwordResetTTL = time.Hour
	maxOTPAttempts   = 5
	otpChannelEmail  = "email"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrUserExists               = errors.New("user with this email already exists")
	ErrUserNotFound             = errors.New("user not found")
	ErrEmailNotVerified         = errors.New("email not verified")
	ErrAccountBanned            = errors.New("account is banned")
	ErrAlreadyVerified          = errors.New("email already verified")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
	ErrInvalidOTP               = errors.New("invalid or expired code")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
)

type AuthService struct {
	db      *gorm.DB
	cfg     *config.Config
	email   *EmailService
	limiter Limiter
	store   state.Store
	authz   *AuthorizationService
	now     func() time.Time
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,strong_password"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

type MeResponse struct {
	User    *models.User  `json:"user"`
	Roles   []models.Role `json:"roles"`
	HasShop bool          `json:"has_shop"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,otp_code"`
}

func NewAuthService(db *gorm.DB, cfg *config.Config, email *EmailService, limiter Limiter, store state.Store, authz *AuthorizationService) *AuthService {
	return &AuthService{
		db:      db,
		cfg:     cfg,
		email:   email,
		limiter: limiter,
		store:   store,
		authz:   authz,
		now:     time.Now,
	}
}

// Register creates the account and mails a verification link. Tokens are
// issued only after the email is verified.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := utils.NormalizeEmail(req.Email)

	// an OTP guest with the same address is upgraded in place
	var user models.User
	err := s.db.WithContext(ctx).Where("lower(email) = ?", email).First(&user).Error
	switch {
	case err == nil && !user.IsAnonymous:
		return nil, ErrUserExists
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("database error: %w", err)
	}

	user.Aud = "authenticated"
	user.Role = "authenticated"
	user.Email = email
	user.IsAnonymous = false
	user.EmailConfirmedAt = nil
	user.RawAppMetaData = models.JSONB{"provider": "email", "providers": []string{"email"}}
	user.RawUserMetaData = models.JSONB{"full_name": req.FullName}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var rawToken string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		var err error
		rawToken, err = s.issueVerificationToken(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if err := s.email.SendVerificationEmail(context.Background(), user.Email, req.FullName, rawToken); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send verification email")
		}
	}()

	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("lower(email) = ? AND is_anonymous = ?", utils.NormalizeEmail(req.Email), false).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.EncryptedPassword == "" || user.CheckPassword(req.Password) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBanned(s.now()) {
		return nil, ErrAccountBanned
	}
	if !user.IsEmailVerified() {
		return nil, ErrEmailNotVerified
	}

	return s.signIn(ctx, &user)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsBanned(s.now()) {
		return nil, ErrAccountBanned
	}

	return s.tokens(user)
}

// Logout ends the user's view state. The task generation cooldown is kept.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	err := s.store.Update(ctx, userID, func(sess *state.Session) error {
		sess.EndView()
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.authz.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var shops int64
	if err := s.db.WithContext(ctx).Model(&models.ArtisanShop{}).Where("user_id = ?", userID).Count(&shops).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &MeResponse{User: user, Roles: roles, HasShop: shops > 0}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vt models.EmailVerificationToken
		if err := tx.Where("token = ?", utils.HashString(token)).First(&vt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidVerificationToken
			}
			return fmt.Errorf("database error: %w", err)
		}
		if !vt.Usable(now) {
			return ErrInvalidVerificationToken
		}

		if err := tx.Model(&vt).Update("used_at", now).Error; err != nil {
			return fmt.Errorf("failed to consume token: %w", err)
		}
		if err := tx.Model(&models.User{}).
			Where("id = ? AND email_confirmed_at IS NULL", vt.UserID).
			Update("email_confirmed_at", now).Error; err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
		return nil
	})
}

// ResendVerification allows one resend per address per cooldown window.
// Unknown addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if err := s.limiter.Allow(ctx, "verify:"+email, s.cfg.Engine.ResendCooldown); err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("lower(email) = ? AND is_anonymous = ?", email, false).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}
	if user.IsEmailVerified() {
		return ErrAlreadyVerified
	}

	var rawToken string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailVerificationToken{}).
			Where("user_id = ? AND used_at IS NULL", user.ID).
			Update("used_at", s.now()).Error; err != nil {
			return fmt.Errorf("failed to invalidate tokens: %w", err)
		}
		var err error
		rawToken, err = s.issueVerificationToken(tx, &user)
		return err
	})
	if err != nil {
		return err
	}

	return s.email.SendVerificationEmail(ctx, user.Email, user.FullName(), rawToken)
}

func (s *AuthService) issueVerificationToken(tx *gorm.DB, user *models.User) (string, error) {
	raw, err := utils.GenerateVerificationToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	vt := &models.EmailVerificationToken{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     utils.HashString(raw),
		ExpiresAt: s.now().Add(s.cfg.Engine.VerificationTTL),
	}
	if err := tx.Create(vt).Error; err != nil {
		return "", fmt.Errorf("failed to store verification token: %w", err)
	}
	return raw, nil
}

// SendOTP replaces any pending code for the address and mails a new one.
func (s *AuthService) SendOTP(ctx context.Context, email string) error {
	email = utils.NormalizeEmail(email)
	if err := s.limiter.Allow(ctx, "otp:"+email, s.cfg.Engine.OTPCooldown); err != nil {
		return err
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	otp := &models.OTPCode{
		Identifier: email,
		Channel:    otpChannelEmail,
		ExpiresAt:  s.now().Add(s.cfg.Engine.OTPTTL),
	}
	if err := otp.SetCode(code); err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("identifier = ? AND verified = ?", email, false).
			Delete(&models.OTPCode{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous codes: %w", err)
		}
		return tx.Create(otp).Error
	})
	if err != nil {
		return err
	}

	return s.email.SendOTPEmail(ctx, email, code)
}

// VerifyOTP checks the latest pending code and signs the user in, creating
// an anonymous guest account on first use.
func (s *AuthService) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	now := s.now()

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var otp models.OTPCode
		if err := tx.Where("identifier = ? AND verified = ? AND expires_at > ?", email, false, now).
			Order("created_at DESC").
			First(&otp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidOTP
			}
			return fmt.Errorf("database error: %w", err)
		}

		if otp.Attempts >= maxOTPAttempts || !otp.Matches(req.Code) {
			// counted outside the failing transaction
			return ErrInvalidOTP
		}
		if err := tx.Model(&otp).Update("verified", true).Error; err != nil {
			return fmt.Errorf("failed to mark code verified: %w", err)
		}

		err := tx.Where("lower(email) = ?", email).Order("is_anonymous ASC").First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Aud:              "authenticated",
				Role:             "authenticated",
				Email:            email,
				EmailConfirmedAt: &now,
				IsAnonymous:      true,
				RawAppMetaData:   models.JSONB{"provider": "otp"},
				RawUserMetaData:  models.JSONB{"guest": true},
			}
			return tx.Create(&user).Error
		}
		return err
	})
	if errors.Is(err, ErrInvalidOTP) {
		s.db.WithContext(ctx).Model(&models.OTPCode{}).
			Where("identifier = ? AND verified = ? AND expires_at > ?", email, false, now).
			UpdateColumn("attempts", gorm.Expr("attempts + 1"))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if user.IsBanned(now) {
		return nil, ErrAccountBanned
	}

	return s.signIn(ctx, &user)
}

func (s *AuthService) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("lower(email) = ? AND is_anonymous = ?", utils.NormalizeEmail(req.Email), false).
		First(&user).Error; err != nil {
		// Don't reveal if email exists or not
		return nil
	}

	resetToken, err := utils.GenerateVerificationToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"recovery_token":   utils.HashString(resetToken),
		"recovery_sent_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	go func() {
		if err := s.email.SendPasswordResetEmail(context.Background(), user.Email, user.FullName(), resetToken); err != nil {
			logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to send password reset email")
		}
	}()
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("recovery_token = ?", utils.HashString(req.Token)).
		First(&user).Error; err != nil {
		return ErrInvalidResetToken
	}
	if user.RecoverySentAt == nil || s.now().After(user.RecoverySentAt.Add(passwordResetTTL)) {
		return ErrInvalidResetToken
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"encrypted_password": user.EncryptedPassword,
		"recovery_token":     "",
		"recovery_sent_at":   nil,
	}).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// signIn stamps the sign in, initializes the engine session and issues tokens.
func (s *AuthService) signIn(ctx context.Context, user *models.User) (*AuthResponse, error) {
	now := s.now()
	user.LastSignInAt = &now
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_sign_in_at", now).Error; err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to stamp sign in")
	}

	if err := s.store.Update(ctx, user.ID, func(*state.Session) error { return nil }); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to initialize session")
	}

	return s.tokens(user)
}

func (s *AuthService) tokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateJWT(user.ID, user.Email, user.IsAnonymous, s.cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.cfg.JWT.AccessTokenTTL * 3600,
	}, nil
}
