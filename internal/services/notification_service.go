// internal/services/notification_service.go
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
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	NotificationMilestone   = "milestone"
	NotificationAchievement = "achievement"
	NotificationLevelUp     = "level_up"
	NotificationModeration  = "moderation"
	NotificationShop        = "shop"
	NotificationSystem      = "system"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
	email  *EmailService
}

type NotificationRequest struct {
	UserID              uuid.UUID              `json:"user_id" validate:"required"`
	Type                string                 `json:"type" validate:"required,max=50"`
	Title               string                 `json:"title" validate:"required,max=255"`
	Message             string                 `json:"message" validate:"required"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	RelatedResourceType string                 `json:"related_resource_type,omitempty"`
	RelatedResourceID   *uuid.UUID             `json:"related_resource_id,omitempty"`
}

type NotificationFilter struct {
	UnreadOnly bool
	Type       string
}

func NewNotificationService(db *gorm.DB, config *config.Config, email *EmailService) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
		email:  email,
	}
}

func (s *NotificationService) Create(ctx context.Context, req *NotificationRequest) (*models.Notification, error) {
	n := &models.Notification{
		UserID:              req.UserID,
		Type:                req.Type,
		Title:               req.Title,
		Message:             req.Message,
		Metadata:            models.JSONB(req.Metadata),
		RelatedResourceType: req.RelatedResourceType,
		RelatedResourceID:   req.RelatedResourceID,
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// CreateTx is used inside other services' transactions.
func (s *NotificationService) CreateTx(tx *gorm.DB, req *NotificationRequest) error {
	n := &models.Notification{
		UserID:              req.UserID,
		Type:                req.Type,
		Title:               req.Title,
		Message:             req.Message,
		Metadata:            models.JSONB(req.Metadata),
		RelatedResourceType: req.RelatedResourceType,
		RelatedResourceID:   req.RelatedResourceID,
	}
	if err := tx.Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, filter NotificationFilter, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var items []models.Notification
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Dismiss soft deletes the notification.
func (s *NotificationService) Dismiss(ctx context.Context, userID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("failed to dismiss notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// Subscribe turns engine events into notifications. Events replayed from
// other instances are skipped since their origin already handled them.
func (s *NotificationService) Subscribe(bus *events.Bus) func() {
	names := []string{events.MilestoneCompleted, events.MilestoneUnlocked, events.AchievementUnlocked, events.LevelUp}
	var unsubs []func()
	for _, name := range names {
		unsubs = append(unsubs, bus.Subscribe(name, s.handleEvent))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *NotificationService) handleEvent(ctx context.Context, e events.Event) {
	if e.Origin != "" || e.UserID == uuid.Nil {
		return
	}
	req, ok := NotificationForEvent(s.config.I18n.DefaultLocale, e)
	if !ok {
		return
	}

	log := logrus.WithFields(logrus.Fields{"event": e.Name, "user_id": e.UserID})
	if _, err := s.Create(ctx, req); err != nil {
		log.WithError(err).Warn("Failed to store event notification")
		return
	}

	if e.Name == events.MilestoneCompleted && s.email != nil {
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", e.UserID).Error; err != nil {
			return
		}
		if to, ok := emailForUser(&user); ok {
			go func() {
				if err := s.email.SendMilestoneEmail(context.Background(), to, req.Title, req.Message); err != nil {
					log.WithError(err).Warn("Failed to send milestone email")
				}
			}()
		}
	}
}

// NotificationForEvent builds the localized notification for an engine event.
func NotificationForEvent(lang string, e events.Event) (*NotificationRequest, bool) {
	req := &NotificationRequest{UserID: e.UserID, Metadata: e.Payload}

	switch e.Name {
	case events.MilestoneCompleted:
		req.Type = NotificationMilestone
		req.Title = i18n.T(lang, i18n.KeyMilestoneCompletedTitle)
		req.Message = i18n.T(lang, i18n.KeyMilestoneCompletedMsg, payloadString(e.Payload, "milestoneName"))
	case events.MilestoneUnlocked:
		req.Type = NotificationMilestone
		req.Title = i18n.T(lang, i18n.KeyMilestoneUnlockedTitle)
		req.Message = i18n.T(lang, i18n.KeyMilestoneUnlockedMsg, payloadString(e.Payload, "milestoneName"))
	case events.AchievementUnlocked:
		req.Type = NotificationAchievement
		req.Title = i18n.T(lang, i18n.KeyAchievementTitle)
		req.Message = payloadString(e.Payload, "title")
		if d := payloadString(e.Payload, "description"); d != "" {
			req.Message += ": " + d
		}
	case events.LevelUp:
		req.Type = NotificationLevelUp
		req.Title = i18n.T(lang, i18n.KeyLevelUpTitle)
		req.Message = i18n.T(lang, i18n.KeyLevelUpMsg, payloadInt(e.Payload, "level"))
	default:
		return nil, false
	}
	return req, true
}

func payloadString(p map[string]interface{}, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// payloadInt accepts float64 since events replayed from Redis are JSON decoded.
func payloadInt(p map[string]interface{}, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
