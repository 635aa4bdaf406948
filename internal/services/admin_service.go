// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var (
	ErrSelfDemotion = errors.New("admins cannot revoke their own admin role")
	ErrBanAdmin     = errors.New("cannot ban an admin user")
)

type AdminService struct {
	db    *gorm.DB
	authz *AuthorizationService
	now   func() time.Time
}

type AdminDashboardStats struct {
	TotalUsers         int64            `json:"total_users"`
	NewUsersThisMonth  int64            `json:"new_users_this_month"`
	AnonymousUsers     int64            `json:"anonymous_users"`
	ShopsByApproval    map[string]int64 `json:"shops_by_approval"`
	ProductsByStatus   map[string]int64 `json:"products_by_status"`
	PendingTasks       int64            `json:"pending_tasks"`
	PaidCheckouts      int64            `json:"paid_checkouts"`
	GrossSalesMinor    int64            `json:"gross_sales_minor"`
	MonthlySalesMinor  int64            `json:"monthly_sales_minor"`
	UserGrowth         float64          `json:"user_growth"`
	PendingModerations int64            `json:"pending_moderations"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role          *models.Role `json:"role,omitempty"`
	Anonymous     *bool        `json:"anonymous,omitempty"`
	CreatedAfter  *time.Time   `json:"created_after,omitempty"`
	CreatedBefore *time.Time   `json:"created_before,omitempty"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
}

func NewAdminService(db *gorm.DB, authz *AuthorizationService) *AdminService {
	return &AdminService{db: db, authz: authz, now: time.Now}
}

// GetDashboardStats gathers the platform counters shown on the admin home.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{
		ShopsByApproval:  make(map[string]int64),
		ProductsByStatus: make(map[string]int64),
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// Users
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)
	db.Model(&models.User{}).Where("is_anonymous = ?", true).Count(&stats.AnonymousUsers)

	var lastMonthUsers int64
	db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", lastMonthStart, monthStart).
		Count(&lastMonthUsers)
	stats.UserGrowth = growth(stats.NewUsersThisMonth, lastMonthUsers)

	// Shops and products
	if err := groupCounts(db.Model(&models.ArtisanShop{}), "marketplace_approval_status", stats.ShopsByApproval); err != nil {
		return nil, fmt.Errorf("failed to count shops: %w", err)
	}
	if err := groupCounts(db.Model(&models.Product{}), "moderation_status", stats.ProductsByStatus); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	stats.PendingModerations = stats.ProductsByStatus[string(models.ModerationStatusPending)]

	// Tasks and sales
	db.Model(&models.AgentTask{}).
		Where("status = ? AND is_archived = ?", models.TaskStatusPending, false).
		Count(&stats.PendingTasks)
	db.Model(&models.Checkout{}).Where("status = ?", models.CheckoutStatusPaid).Count(&stats.PaidCheckouts)
	db.Model(&models.Checkout{}).
		Where("status = ?", models.CheckoutStatusPaid).
		Select("COALESCE(SUM(total_minor), 0)").Scan(&stats.GrossSalesMinor)
	db.Model(&models.Checkout{}).
		Where("status = ? AND created_at >= ?", models.CheckoutStatusPaid, monthStart).
		Select("COALESCE(SUM(total_minor), 0)").Scan(&stats.MonthlySalesMinor)

	return stats, nil
}

func groupCounts(query *gorm.DB, column string, into map[string]int64) error {
	var rows []struct {
		Key   string
		Count int64
	}
	if err := query.Select(column + " AS key, COUNT(*) AS count").Group(column).Scan(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		into[r.Key] = r.Count
	}
	return nil
}

// growth is the percentage change from previous to current.
func growth(current, previous int64) float64 {
	if previous <= 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if filter.Role != nil {
		query = query.Where("id IN (?)", s.db.Model(&models.UserRole{}).Select("user_id").Where("role = ?", *filter.Role))
	}
	if filter.Anonymous != nil {
		query = query.Where("is_anonymous = ?", *filter.Anonymous)
	}
	if filter.Search != "" {
		query = query.Where("email ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, "created_at", "updated_at", "email", "last_sign_in_at")
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

// BanUser blocks sign in until the given time; a nil time lifts the ban.
func (s *AdminService) BanUser(ctx context.Context, adminID, userID uuid.UUID, until *time.Time, reason string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	isAdmin, err := s.authz.HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return err
	}
	if isAdmin {
		return ErrBanAdmin
	}

	old := user.BannedUntil
	if err := s.db.WithContext(ctx).Model(&user).Update("banned_until", until).Error; err != nil {
		return fmt.Errorf("failed to update user ban: %w", err)
	}

	s.audit(ctx, adminID, "UPDATE_USER_BAN", "user", &userID,
		map[string]interface{}{"banned_until": old},
		map[string]interface{}{"banned_until": until, "reason": reason})
	return nil
}

// Roles

func (s *AdminService) GrantRole(ctx context.Context, adminID, userID uuid.UUID, role models.Role) error {
	if err := s.authz.Grant(ctx, userID, role, &adminID); err != nil {
		return err
	}
	s.audit(ctx, adminID, "GRANT_ROLE", "user", &userID, nil, map[string]interface{}{"role": role})
	return nil
}

func (s *AdminService) RevokeRole(ctx context.Context, adminID, userID uuid.UUID, role models.Role) error {
	if adminID == userID && role == models.RoleAdmin {
		return ErrSelfDemotion
	}
	if err := s.authz.Revoke(ctx, userID, role); err != nil {
		return err
	}
	s.audit(ctx, adminID, "REVOKE_ROLE", "user", &userID, map[string]interface{}{"role": role}, nil)
	return nil
}

func (s *AdminService) ListRole(ctx context.Context, role models.Role) ([]models.UserRole, error) {
	return s.authz.ListByRole(ctx, role)
}

// Settings Management
func (s *AdminService) GetSettings(ctx context.Context) (map[string]models.AdminSettings, error) {
	var settings []models.AdminSettings
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	settingsMap := make(map[string]models.AdminSettings, len(settings))
	for _, setting := range settings {
		settingsMap[fmt.Sprintf("%s.%s", setting.Category, setting.Key)] = setting
	}
	return settingsMap, nil
}

func (s *AdminService) UpdateSetting(ctx context.Context, adminID uuid.UUID, category, key string, value interface{}, dataType string) error {
	db := s.db.WithContext(ctx)

	var setting models.AdminSettings
	err := db.Where("category = ? AND key = ?", category, key).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.AdminSettings{
			Category:  category,
			Key:       key,
			Value:     models.JSONB{"value": value},
			DataType:  dataType,
			UpdatedBy: &adminID,
		}
		if err := db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create setting: %w", err)
		}
		s.audit(ctx, adminID, "CREATE_SETTING", "admin_setting", &setting.ID, nil, map[string]interface{}{"value": setting.Value})
	case err != nil:
		return fmt.Errorf("database error: %w", err)
	default:
		oldValue := setting.Value
		setting.Value = models.JSONB{"value": value}
		setting.DataType = dataType
		setting.UpdatedBy = &adminID
		if err := db.Save(&setting).Error; err != nil {
			return fmt.Errorf("failed to update setting: %w", err)
		}
		s.audit(ctx, adminID, "UPDATE_SETTING", "admin_setting", &setting.ID,
			map[string]interface{}{"value": oldValue},
			map[string]interface{}{"value": setting.Value})
	}
	return nil
}

// Audit

func (s *AdminService) AuditLogs(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, "created_at", "action")
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

func (s *AdminService) audit(ctx context.Context, userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) {
	if err := writeAudit(s.db.WithContext(ctx), userID, action, resourceType, resourceID, oldValues, newValues); err != nil {
		logrus.WithError(err).WithField("action", action).Warn("Failed to write audit log")
	}
}

func writeAudit(db *gorm.DB, userID uuid.UUID, action, resourceType string, resourceID *uuid.UUID, oldValues, newValues map[string]interface{}) error {
	return db.Create(&models.AuditLog{
		UserID:       &userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldValues:    models.JSONB(oldValues),
		NewValues:    models.JSONB(newValues),
	}).Error
}
