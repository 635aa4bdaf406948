package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var (
	ErrInvalidModerationAction = errors.New("invalid moderation action")
	ErrNotModeratable          = errors.New("product is not awaiting moderation")
	ErrInvalidEdit             = errors.New("invalid moderation edit")
)

type ModerationAction string

const (
	ModerationApprove          ModerationAction = "approve"
	ModerationApproveWithEdits ModerationAction = "approve_with_edits"
	ModerationRequestChanges   ModerationAction = "request_changes"
	ModerationReject           ModerationAction = "reject"
)

var moderationTransitions = map[ModerationAction]models.ModerationStatus{
	ModerationApprove:          models.ModerationStatusApproved,
	ModerationApproveWithEdits: models.ModerationStatusApprovedWithEdits,
	ModerationRequestChanges:   models.ModerationStatusChangesRequested,
	ModerationReject:           models.ModerationStatusRejected,
}

// Fields a moderator may edit, by kind.
var (
	moderationTextFields   = []string{"name", "description", "short_description", "category", "subcategory", "sku"}
	moderationArrayFields  = []string{"tags", "materials", "techniques", "images"}
	moderationNumberFields = []string{"price", "weight"}
)

type ModerateRequest struct {
	Action  ModerationAction       `json:"action" validate:"required,oneof=approve approve_with_edits request_changes reject"`
	Comment string                 `json:"comment,omitempty" validate:"max=2000"`
	Edits   map[string]interface{} `json:"edits,omitempty"`
}

type ModerationQueue struct {
	Products []models.Product                  `json:"products"`
	Total    int64                             `json:"total"`
	Counts   map[models.ModerationStatus]int64 `json:"counts"`
}

type ModerationService struct {
	db            *gorm.DB
	cfg           *config.Config
	bus           events.Publisher
	notifications *NotificationService
	email         *EmailService
}

func NewModerationService(db *gorm.DB, cfg *config.Config, bus events.Publisher, notifications *NotificationService, email *EmailService) *ModerationService {
	return &ModerationService{
		db:            db,
		cfg:           cfg,
		bus:           bus,
		notifications: notifications,
		email:         email,
	}
}

// NextModerationStatus maps an action to the resulting product status.
func NextModerationStatus(action ModerationAction) (models.ModerationStatus, error) {
	status, ok := moderationTransitions[action]
	if !ok {
		return "", ErrInvalidModerationAction
	}
	return status, nil
}

// Moderatable reports whether a product in this state can receive a
// moderation decision. Drafts were never submitted and archived products
// are gone from the shop.
func Moderatable(status models.ModerationStatus) bool {
	return status != models.ModerationStatusDraft && status != models.ModerationStatusArchived
}

// ModerationEditColumns validates moderator edits against the whitelist and
// converts them to column values. Unknown fields are an error.
func ModerationEditColumns(edits map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(edits))
	for field, raw := range edits {
		switch {
		case contains(moderationTextFields, field):
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidEdit, field)
			}
			out[field] = strings.TrimSpace(s)
		case contains(moderationArrayFields, field):
			arr, err := toStringArray(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEdit, field, err)
			}
			out[field] = arr
		case contains(moderationNumberFields, field):
			n, ok := raw.(float64)
			if !ok || n < 0 {
				return nil, fmt.Errorf("%w: %s must be a positive number", ErrInvalidEdit, field)
			}
			out[field] = n
		case field == "inventory":
			n, ok := raw.(float64)
			if !ok || n < 0 || n != float64(int(n)) {
				return nil, fmt.Errorf("%w: inventory must be a whole number", ErrInvalidEdit)
			}
			out[field] = int(n)
		case field == "dimensions":
			m, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: dimensions must be an object", ErrInvalidEdit)
			}
			out[field] = models.JSONB(m)
		default:
			return nil, fmt.Errorf("%w: %s is not editable", ErrInvalidEdit, field)
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func toStringArray(raw interface{}) (pq.StringArray, error) {
	switch v := raw.(type) {
	case []string:
		return pq.StringArray(v), nil
	case []interface{}:
		out := make(pq.StringArray, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("expected a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.New("expected a list of strings")
}

// applyEdits mirrors column edits onto the loaded product so derived fields
// can be recomputed before saving.
func applyEdits(p *models.Product, cols map[string]interface{}) {
	for field, v := range cols {
		switch field {
		case "weight":
			w := v.(float64)
			p.Weight = &w
		case "dimensions":
			p.Dimensions = v.(models.JSONB)
		}
	}
}

// Queue lists products in the given moderation status (all non-draft
// products when empty) with their shop, plus counts per status.
func (s *ModerationService) Queue(ctx context.Context, status models.ModerationStatus, params utils.PaginationParams) (*ModerationQueue, error) {
	db := s.db.WithContext(ctx)

	query := db.Model(&models.Product{})
	if status != "" {
		query = query.Where("moderation_status = ?", status)
	} else {
		query = query.Where("moderation_status <> ?", models.ModerationStatusDraft)
	}

	queue := &ModerationQueue{Counts: make(map[models.ModerationStatus]int64)}
	if err := query.Count(&queue.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := utils.ApplyPagination(query.Order("updated_at ASC"), params).
		Preload("Shop").
		Find(&queue.Products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch moderation queue: %w", err)
	}

	var rows []struct {
		ModerationStatus models.ModerationStatus
		Count            int64
	}
	if err := db.Model(&models.Product{}).
		Select("moderation_status, COUNT(*) AS count").
		Group("moderation_status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	for _, r := range rows {
		queue.Counts[r.ModerationStatus] = r.Count
	}
	return queue, nil
}

// History returns the decisions taken on a product, newest first.
func (s *ModerationService) History(ctx context.Context, productID uuid.UUID) ([]models.ProductModerationHistory, error) {
	var rows []models.ProductModerationHistory
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch moderation history: %w", err)
	}
	return rows, nil
}

func moderationMessage(lang string, status models.ModerationStatus, productName string) (string, string) {
	switch status {
	case models.ModerationStatusApproved:
		return i18n.T(lang, i18n.KeyModerationApprovedTitle), i18n.T(lang, i18n.KeyModerationApprovedMsg, productName)
	case models.ModerationStatusApprovedWithEdits:
		return i18n.T(lang, i18n.KeyModerationEditedTitle), i18n.T(lang, i18n.KeyModerationEditedMsg, productName)
	case models.ModerationStatusChangesRequested:
		return i18n.T(lang, i18n.KeyModerationChangesTitle), i18n.T(lang, i18n.KeyModerationChangesMsg, productName)
	default:
		return i18n.T(lang, i18n.KeyModerationRejectedTitle), i18n.T(lang, i18n.KeyModerationRejectedMsg, productName)
	}
}

// Moderate applies a decision. The product update, history row and
// notification are written in one transaction; the owner email is sent
// after commit.
func (s *ModerationService) Moderate(ctx context.Context, moderatorID, productID uuid.UUID, req *ModerateRequest) (*models.Product, error) {
	newStatus, err := NextModerationStatus(req.Action)
	if err != nil {
		return nil, err
	}
	cols, err := ModerationEditColumns(req.Edits)
	if err != nil {
		return nil, err
	}

	lang := s.cfg.I18n.DefaultLocale
	var (
		product        models.Product
		previousStatus models.ModerationStatus
		title, message string
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		if !Moderatable(product.ModerationStatus) {
			return ErrNotModeratable
		}
		previousStatus = product.ModerationStatus

		applyEdits(&product, cols)
		updates := make(map[string]interface{}, len(cols)+3)
		for k, v := range cols {
			updates[k] = v
		}
		updates["moderation_status"] = newStatus
		updates["shipping_data_complete"] = product.HasShippingData()
		if newStatus.Visible() {
			updates["active"] = true
		} else {
			updates["active"] = false
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := tx.Preload("Shop").First(&product, "id = ?", productID).Error; err != nil {
			return fmt.Errorf("failed to reload product: %w", err)
		}

		history := &models.ProductModerationHistory{
			ProductID:      product.ID,
			PreviousStatus: previousStatus,
			NewStatus:      newStatus,
			ModeratorID:    moderatorID,
			Comment:        req.Comment,
		}
		if len(req.Edits) > 0 {
			history.EditsMade = models.JSONB(req.Edits)
		}
		if err := tx.Create(history).Error; err != nil {
			return fmt.Errorf("failed to record moderation history: %w", err)
		}

		if product.Shop == nil {
			return nil
		}
		title, message = moderationMessage(lang, newStatus, product.Name)
		return s.notifications.CreateTx(tx, &NotificationRequest{
			UserID:              product.Shop.UserID,
			Type:                NotificationModeration,
			Title:               title,
			Message:             message,
			RelatedResourceType: "product",
			RelatedResourceID:   &product.ID,
			Metadata: map[string]interface{}{
				"status":  string(newStatus),
				"comment": req.Comment,
				"edits":   sortedKeys(req.Edits),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"product_id":   product.ID,
		"moderator_id": moderatorID,
		"from":         previousStatus,
		"to":           newStatus,
	}).Info("Product moderated")

	if product.Shop != nil {
		s.emailOwner(ctx, product.Shop.UserID, title, message, req.Comment)
		s.bus.Publish(ctx, events.Event{
			Name:   events.ProductModerated,
			UserID: product.Shop.UserID,
			Payload: map[string]interface{}{
				"productId": product.ID.String(),
				"shopId":    product.ShopID.String(),
				"status":    string(newStatus),
			},
		})
	}
	return &product, nil
}

func (s *ModerationService) emailOwner(ctx context.Context, ownerID uuid.UUID, title, message, comment string) {
	if s.email == nil {
		return
	}
	var owner models.User
	if err := s.db.WithContext(ctx).First(&owner, "id = ?", ownerID).Error; err != nil {
		logrus.WithError(err).WithField("user_id", ownerID).Warn("Failed to load product owner for email")
		return
	}
	to, ok := emailForUser(&owner)
	if !ok {
		return
	}
	if err := s.email.SendModerationEmail(ctx, to, title, message, comment); err != nil {
		logrus.WithError(err).WithField("user_id", ownerID).Warn("Failed to send moderation email")
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
