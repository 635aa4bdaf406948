// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User maps auth.users, which is created by the CreateUsersTable migration.
type User struct {
	ID                 uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	InstanceID         *uuid.UUID     `json:"-" gorm:"type:uuid"`
	Aud                string         `json:"aud,omitempty" gorm:"size:255"`
	Role               string         `json:"role,omitempty" gorm:"size:255"`
	Email              string         `json:"email" gorm:"size:255"`
	EncryptedPassword  string         `json:"-" gorm:"column:encrypted_password;size:255"`
	EmailConfirmedAt   *time.Time     `json:"email_confirmed_at"`
	ConfirmationToken  string         `json:"-" gorm:"size:255"`
	ConfirmationSentAt *time.Time     `json:"-"`
	RecoveryToken      string         `json:"-" gorm:"size:255"`
	RecoverySentAt     *time.Time     `json:"-"`
	LastSignInAt       *time.Time     `json:"last_sign_in_at"`
	RawAppMetaData     JSONB          `json:"app_metadata" gorm:"column:raw_app_meta_data;type:jsonb"`
	RawUserMetaData    JSONB          `json:"user_metadata" gorm:"column:raw_user_meta_data;type:jsonb"`
	Phone              *string        `json:"phone,omitempty"`
	ConfirmedAt        *time.Time     `json:"confirmed_at" gorm:"->"`
	BannedUntil        *time.Time     `json:"banned_until,omitempty"`
	IsSSOUser          bool           `json:"-" gorm:"column:is_sso_user"`
	IsAnonymous        bool           `json:"is_anonymous"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-"`
}

func (User) TableName() string {
	return "auth.users"
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.EncryptedPassword = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.EncryptedPassword), []byte(password))
}

func (u *User) IsEmailVerified() bool {
	return u.EmailConfirmedAt != nil
}

func (u *User) FullName() string {
	return u.RawUserMetaData.String("full_name")
}

func (u *User) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}

// UserRole is the single source of truth for elevated permissions.
type UserRole struct {
	BaseModel
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      Role       `json:"role" gorm:"type:varchar(20);not null;uniqueIndex:idx_user_roles_user_role"`
	GrantedBy *uuid.UUID `json:"granted_by" gorm:"type:uuid"`
}

// EmailVerificationToken is issued at registration and on resend.
type EmailVerificationToken struct {
	BaseModel
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Email     string     `json:"email" gorm:"size:255;not null;index"`
	Token     string     `json:"-" gorm:"size:128;not null;uniqueIndex"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
}

func (t *EmailVerificationToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// OTPCode stores a hashed one-time code sent by email for passwordless sign in.
type OTPCode struct {
	BaseModel
	Identifier string    `json:"identifier" gorm:"size:255;not null;index"`
	CodeHash   string    `json:"-" gorm:"size:255;not null"`
	Channel    string    `json:"channel" gorm:"size:20;not null;default:'email'"`
	Verified   bool      `json:"verified" gorm:"not null;default:false"`
	Attempts   int       `json:"attempts" gorm:"not null;default:0"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

func (o *OTPCode) SetCode(code string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.CodeHash = string(hashed)
	return nil
}

func (o *OTPCode) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.CodeHash), []byte(code)) == nil
}

func (o *OTPCode) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
