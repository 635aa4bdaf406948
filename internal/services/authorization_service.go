// internal/services/authorization_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/models"
)

var (
	ErrInvalidRole     = errors.New("invalid role")
	ErrRoleNotAssigned = errors.New("role not assigned")
)

// AuthorizationService answers every role question from user_roles.
type AuthorizationService struct {
	db *gorm.DB
}

func NewAuthorizationService(db *gorm.DB) *AuthorizationService {
	return &AuthorizationService{db: db}
}

func validRole(r models.Role) bool {
	switch r {
	case models.RoleAdmin, models.RoleModerator, models.RoleShopOwner:
		return true
	}
	return false
}

// RoleSatisfies reports whether the held roles grant any of the wanted ones.
// Admins pass every moderator check.
func RoleSatisfies(held []models.Role, wanted ...models.Role) bool {
	for _, h := range held {
		for _, w := range wanted {
			if h == w || (h == models.RoleAdmin && w == models.RoleModerator) {
				return true
			}
		}
	}
	return false
}

func (s *AuthorizationService) Roles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", userID).
		Pluck("role", &roles).Error; err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	return roles, nil
}

func (s *AuthorizationService) HasRole(ctx context.Context, userID uuid.UUID, roles ...models.Role) (bool, error) {
	held, err := s.Roles(ctx, userID)
	if err != nil {
		return false, err
	}
	return RoleSatisfies(held, roles...), nil
}

func (s *AuthorizationService) IsModerator(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, models.RoleModerator)
}

// Grant is idempotent.
func (s *AuthorizationService) Grant(ctx context.Context, userID uuid.UUID, role models.Role, grantedBy *uuid.UUID) error {
	if !validRole(role) {
		return ErrInvalidRole
	}
	ur := &models.UserRole{UserID: userID, Role: role, GrantedBy: grantedBy}
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ur).Error; err != nil {
		return fmt.Errorf("failed to grant role: %w", err)
	}
	return nil
}

func (s *AuthorizationService) Revoke(ctx context.Context, userID uuid.UUID, role models.Role) error {
	if !validRole(role) {
		return ErrInvalidRole
	}
	res := s.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return fmt.Errorf("failed to revoke role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRoleNotAssigned
	}
	return nil
}

// ListByRole returns the role rows for one role, newest first.
func (s *AuthorizationService) ListByRole(ctx context.Context, role models.Role) ([]models.UserRole, error) {
	var rows []models.UserRole
	if err := s.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return rows, nil
}
