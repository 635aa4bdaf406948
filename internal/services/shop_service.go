package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var (
	ErrShopNotFound = errors.New("shop not found")
	ErrShopExists   = errors.New("user already has a shop")
)

type ShopService struct {
	db            *gorm.DB
	cfg           *config.Config
	bus           events.Publisher
	authz         *AuthorizationService
	notifications *NotificationService
}

type CreateShopRequest struct {
	ShopName     string                 `json:"shop_name" validate:"required,min=2,max=100"`
	ShopSlug     string                 `json:"shop_slug,omitempty" validate:"omitempty,slug,max=100"`
	Description  string                 `json:"description,omitempty" validate:"max=2000"`
	Story        string                 `json:"story,omitempty"`
	CraftType    string                 `json:"craft_type,omitempty" validate:"max=100"`
	Region       string                 `json:"region,omitempty" validate:"max=100"`
	Department   string                 `json:"department,omitempty"`
	Municipality string                 `json:"municipality,omitempty"`
	LogoURL      string                 `json:"logo_url,omitempty" validate:"omitempty,url"`
	BannerURL    string                 `json:"banner_url,omitempty" validate:"omitempty,url"`
	ContactInfo  map[string]interface{} `json:"contact_info,omitempty"`
	SocialLinks  map[string]interface{} `json:"social_links,omitempty"`
}

// UpdateShopRequest lists the fields an owner may change. Nil means unchanged.
type UpdateShopRequest struct {
	ShopName                *string                `json:"shop_name,omitempty" validate:"omitempty,min=2,max=100"`
	Description             *string                `json:"description,omitempty" validate:"omitempty,max=2000"`
	Story                   *string                `json:"story,omitempty"`
	LogoURL                 *string                `json:"logo_url,omitempty" validate:"omitempty,url"`
	BannerURL               *string                `json:"banner_url,omitempty" validate:"omitempty,url"`
	CraftType               *string                `json:"craft_type,omitempty"`
	Region                  *string                `json:"region,omitempty"`
	Department              *string                `json:"department,omitempty"`
	Municipality            *string                `json:"municipality,omitempty"`
	BrandClaim              *string                `json:"brand_claim,omitempty" validate:"omitempty,max=200"`
	PrivacyLevel            *string                `json:"privacy_level,omitempty" validate:"omitempty,oneof=public limited private"`
	ActiveThemeID           *string                `json:"active_theme_id,omitempty"`
	Certifications          []interface{}          `json:"certifications,omitempty"`
	PrimaryColors           []interface{}          `json:"primary_colors,omitempty"`
	SecondaryColors         []interface{}          `json:"secondary_colors,omitempty"`
	ContactInfo             map[string]interface{} `json:"contact_info,omitempty"`
	SocialLinks             map[string]interface{} `json:"social_links,omitempty"`
	HeroConfig              map[string]interface{} `json:"hero_config,omitempty"`
	AboutContent            map[string]interface{} `json:"about_content,omitempty"`
	ContactConfig           map[string]interface{} `json:"contact_config,omitempty"`
	SEOData                 map[string]interface{} `json:"seo_data,omitempty"`
	ArtisanProfile          map[string]interface{} `json:"artisan_profile,omitempty"`
	ArtisanProfileCompleted *bool                  `json:"artisan_profile_completed,omitempty"`
}

type ShopFilter struct {
	utils.PaginationParams
	CraftType string
	Featured  *bool
}

func NewShopService(db *gorm.DB, cfg *config.Config, bus events.Publisher, authz *AuthorizationService, notifications *NotificationService) *ShopService {
	return &ShopService{
		db:            db,
		cfg:           cfg,
		bus:           bus,
		authz:         authz,
		notifications: notifications,
	}
}

// NextSlug returns base, or base-N with the smallest free N.
func NextSlug(base string, taken []string) string {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t] = true
	}
	if !used[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

func (s *ShopService) uniqueSlug(tx *gorm.DB, base string) (string, error) {
	if base == "" {
		base = "tienda"
	}
	var taken []string
	if err := tx.Model(&models.ArtisanShop{}).
		Where("shop_slug = ? OR shop_slug LIKE ?", base, base+"-%").
		Pluck("shop_slug", &taken).Error; err != nil {
		return "", fmt.Errorf("failed to check slug: %w", err)
	}
	return NextSlug(base, taken), nil
}

func (s *ShopService) Create(ctx context.Context, userID uuid.UUID, req *CreateShopRequest) (*models.ArtisanShop, error) {
	shop := &models.ArtisanShop{
		UserID:                    userID,
		ShopName:                  strings.TrimSpace(req.ShopName),
		Description:               req.Description,
		Story:                     req.Story,
		CraftType:                 req.CraftType,
		Region:                    req.Region,
		Department:                req.Department,
		Municipality:              req.Municipality,
		LogoURL:                   req.LogoURL,
		BannerURL:                 req.BannerURL,
		ContactInfo:               models.JSONB(req.ContactInfo),
		SocialLinks:               models.JSONB(req.SocialLinks),
		Active:                    true,
		PrivacyLevel:              "public",
		CreationStatus:            models.CreationStatusComplete,
		PublishStatus:             models.PublishStatusPending,
		BankDataStatus:            models.BankDataStatusNotSet,
		PrimaryColors:             models.JSONArray{},
		SecondaryColors:           models.JSONArray{},
		Certifications:            models.JSONArray{},
		MarketplaceApprovalStatus: models.ApprovalStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.ArtisanShop{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return ErrShopExists
		}

		base := req.ShopSlug
		if base == "" {
			base = utils.Slugify(req.ShopName)
		}
		slug, err := s.uniqueSlug(tx, base)
		if err != nil {
			return err
		}
		shop.ShopSlug = slug

		if err := tx.Create(shop).Error; err != nil {
			return fmt.Errorf("failed to create shop: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.authz.Grant(ctx, userID, models.RoleShopOwner, nil); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Name: events.ShopCreated, UserID: userID, Payload: map[string]interface{}{"shopId": shop.ID.String()}})
	s.bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: userID})
	return shop, nil
}

func (s *ShopService) GetByUser(ctx context.Context, userID uuid.UUID) (*models.ArtisanShop, error) {
	var shop models.ArtisanShop
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shop, nil
}

func (s *ShopService) GetByID(ctx context.Context, id uuid.UUID) (*models.ArtisanShop, error) {
	var shop models.ArtisanShop
	if err := s.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shop, nil
}

// GetBySlug hides shops that are not publicly visible from everyone but the owner.
func (s *ShopService) GetBySlug(ctx context.Context, slug string, viewer *uuid.UUID) (*models.ArtisanShop, error) {
	var shop models.ArtisanShop
	if err := s.db.WithContext(ctx).Where("shop_slug = ?", slug).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !shop.PubliclyVisible() && (viewer == nil || *viewer != shop.UserID) {
		return nil, ErrShopNotFound
	}
	return &shop, nil
}

// ShopUpdates converts the request to a column map and reports whether brand
// fields changed.
func ShopUpdates(req *UpdateShopRequest) (map[string]interface{}, bool) {
	updates := make(map[string]interface{})
	brand := false

	setString := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	setString("shop_name", req.ShopName)
	setString("description", req.Description)
	setString("story", req.Story)
	setString("banner_url", req.BannerURL)
	setString("craft_type", req.CraftType)
	setString("region", req.Region)
	setString("department", req.Department)
	setString("municipality", req.Municipality)
	setString("privacy_level", req.PrivacyLevel)
	setString("active_theme_id", req.ActiveThemeID)

	if req.LogoURL != nil {
		updates["logo_url"] = strings.TrimSpace(*req.LogoURL)
		brand = true
	}
	if req.BrandClaim != nil {
		updates["brand_claim"] = strings.TrimSpace(*req.BrandClaim)
		brand = true
	}
	if req.PrimaryColors != nil {
		updates["primary_colors"] = models.JSONArray(req.PrimaryColors)
		brand = true
	}
	if req.SecondaryColors != nil {
		updates["secondary_colors"] = models.JSONArray(req.SecondaryColors)
		brand = true
	}
	if req.Certifications != nil {
		updates["certifications"] = models.JSONArray(req.Certifications)
	}

	jsonb := map[string]map[string]interface{}{
		"contact_info":    req.ContactInfo,
		"social_links":    req.SocialLinks,
		"hero_config":     req.HeroConfig,
		"about_content":   req.AboutContent,
		"contact_config":  req.ContactConfig,
		"seo_data":        req.SEOData,
		"artisan_profile": req.ArtisanProfile,
	}
	for col, v := range jsonb {
		if v != nil {
			updates[col] = models.JSONB(v)
		}
	}
	if req.ArtisanProfileCompleted != nil {
		updates["artisan_profile_completed"] = *req.ArtisanProfileCompleted
	}
	return updates, brand
}

func (s *ShopService) Update(ctx context.Context, userID uuid.UUID, req *UpdateShopRequest) (*models.ArtisanShop, error) {
	shop, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates, brand := ShopUpdates(req)
	if len(updates) == 0 {
		return shop, nil
	}
	if err := s.db.WithContext(ctx).Model(shop).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}

	if brand {
		s.bus.Publish(ctx, events.Event{Name: events.BrandWizardCompleted, UserID: userID})
	}
	s.bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: userID})
	return s.GetByUser(ctx, userID)
}

// Publish marks the shop ready for the marketplace. It becomes visible
// once an admin approves it.
func (s *ShopService) Publish(ctx context.Context, userID uuid.UUID) (*models.ArtisanShop, error) {
	shop, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(shop).Updates(map[string]interface{}{
		"publish_status": models.PublishStatusPublished,
		"active":         true,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to publish shop: %w", err)
	}
	shop.PublishStatus = models.PublishStatusPublished
	shop.Active = true

	s.bus.Publish(ctx, events.Event{Name: events.ShopPublished, UserID: userID, Payload: map[string]interface{}{"shopId": shop.ID.String()}})
	return shop, nil
}

func (s *ShopService) ListPublic(ctx context.Context, filter ShopFilter) ([]models.ArtisanShop, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ArtisanShop{}).
		Where("active = ? AND publish_status = ? AND marketplace_approved = ?", true, models.PublishStatusPublished, true)

	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.CraftType != "" {
		query = query.Where("craft_type = ?", filter.CraftType)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(shop_name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shops: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, "created_at", "shop_name", "updated_at")
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var shops []models.ArtisanShop
	if err := query.Find(&shops).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch shops: %w", err)
	}
	return shops, total, nil
}

// ListForApproval is the admin marketplace queue.
func (s *ShopService) ListForApproval(ctx context.Context, status models.ApprovalStatus, params utils.PaginationParams) ([]models.ArtisanShop, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ArtisanShop{})
	if status != "" {
		query = query.Where("marketplace_approval_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shops: %w", err)
	}

	var shops []models.ArtisanShop
	if err := utils.ApplyPagination(query.Order("updated_at ASC"), params).Find(&shops).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch shops: %w", err)
	}
	return shops, total, nil
}

func (s *ShopService) Approve(ctx context.Context, adminID, shopID uuid.UUID) (*models.ArtisanShop, error) {
	return s.setApproval(ctx, adminID, shopID, models.ApprovalStatusApproved, "")
}

func (s *ShopService) Reject(ctx context.Context, adminID, shopID uuid.UUID, reason string) (*models.ArtisanShop, error) {
	return s.setApproval(ctx, adminID, shopID, models.ApprovalStatusRejected, reason)
}

func (s *ShopService) setApproval(ctx context.Context, adminID, shopID uuid.UUID, status models.ApprovalStatus, reason string) (*models.ArtisanShop, error) {
	lang := s.cfg.I18n.DefaultLocale
	var shop models.ArtisanShop

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&shop, "id = ?", shopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShopNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}

		now := time.Now()
		approved := status == models.ApprovalStatusApproved
		updates := map[string]interface{}{
			"marketplace_approved":        approved,
			"marketplace_approval_status": status,
			"marketplace_approved_by":     adminID,
			"marketplace_approved_at":     now,
		}
		if err := tx.Model(&shop).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update shop approval: %w", err)
		}
		shop.MarketplaceApproved = approved
		shop.MarketplaceApprovalStatus = status
		shop.MarketplaceApprovedBy = &adminID
		shop.MarketplaceApprovedAt = &now

		req := &NotificationRequest{
			UserID:              shop.UserID,
			Type:                NotificationShop,
			RelatedResourceType: "shop",
			RelatedResourceID:   &shop.ID,
			Metadata:            map[string]interface{}{"status": string(status)},
		}
		if approved {
			req.Title = i18n.T(lang, i18n.KeyShopApprovedTitle)
			req.Message = i18n.T(lang, i18n.KeyShopApprovedMsg, shop.ShopName)
		} else {
			req.Title = i18n.T(lang, i18n.KeyShopRejectedTitle)
			req.Message = strings.TrimSpace(i18n.T(lang, i18n.KeyShopRejectedMsg, shop.ShopName, reason))
		}
		return s.notifications.CreateTx(tx, req)
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: shop.UserID})
	return &shop, nil
}
