// internal/models/shop.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ArtisanShop maps shop.artisan_shops. One shop per user.
type ArtisanShop struct {
	ID                        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID                    uuid.UUID      `json:"user_id" gorm:"type:uuid;not null"`
	ShopName                  string         `json:"shop_name" gorm:"not null"`
	ShopSlug                  string         `json:"shop_slug" gorm:"not null"`
	Description               string         `json:"description"`
	Story                     string         `json:"story"`
	LogoURL                   string         `json:"logo_url"`
	BannerURL                 string         `json:"banner_url"`
	CraftType                 string         `json:"craft_type"`
	Region                    string         `json:"region"`
	Department                string         `json:"department"`
	Municipality              string         `json:"municipality"`
	Certifications            JSONArray      `json:"certifications" gorm:"type:jsonb"`
	ContactInfo               JSONB          `json:"contact_info" gorm:"type:jsonb"`
	SocialLinks               JSONB          `json:"social_links" gorm:"type:jsonb"`
	Active                    bool           `json:"active" gorm:"not null;default:true"`
	Featured                  bool           `json:"featured" gorm:"not null;default:false"`
	SEOData                   JSONB          `json:"seo_data" gorm:"column:seo_data;type:jsonb"`
	PrivacyLevel              string         `json:"privacy_level" gorm:"default:'public'"`
	CreationStatus            CreationStatus `json:"creation_status" gorm:"default:'complete'"`
	CreationStep              int            `json:"creation_step" gorm:"default:0"`
	PrimaryColors             JSONArray      `json:"primary_colors" gorm:"type:jsonb"`
	SecondaryColors           JSONArray      `json:"secondary_colors" gorm:"type:jsonb"`
	BrandClaim                string         `json:"brand_claim"`
	HeroConfig                JSONB          `json:"hero_config" gorm:"type:jsonb"`
	AboutContent              JSONB          `json:"about_content" gorm:"type:jsonb"`
	ContactConfig             JSONB          `json:"contact_config" gorm:"type:jsonb"`
	ActiveThemeID             *string        `json:"active_theme_id"`
	PublishStatus             PublishStatus  `json:"publish_status" gorm:"default:'pending_publish'"`
	MarketplaceApproved       bool           `json:"marketplace_approved" gorm:"default:false"`
	MarketplaceApprovedAt     *time.Time     `json:"marketplace_approved_at"`
	MarketplaceApprovedBy     *uuid.UUID     `json:"marketplace_approved_by" gorm:"type:uuid"`
	MarketplaceApprovalStatus ApprovalStatus `json:"marketplace_approval_status" gorm:"default:'pending'"`
	IDContraparty             *string        `json:"-" gorm:"column:id_contraparty"`
	ArtisanProfile            JSONB          `json:"artisan_profile" gorm:"type:jsonb"`
	ArtisanProfileCompleted   bool           `json:"artisan_profile_completed" gorm:"default:false"`
	BankDataStatus            BankDataStatus `json:"bank_data_status" gorm:"default:'not_set'"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:ShopID"`
}

func (ArtisanShop) TableName() string {
	return "shop.artisan_shops"
}

// PubliclyVisible is true once the owner published and an admin approved the shop.
func (s *ArtisanShop) PubliclyVisible() bool {
	return s.Active && s.PublishStatus == PublishStatusPublished && s.MarketplaceApproved
}

func (s *ArtisanShop) HasCounterparty() bool {
	return s.IDContraparty != nil && *s.IDContraparty != ""
}

// HeroSlideCount counts the slides configured in hero_config.
func (s *ArtisanShop) HeroSlideCount() int {
	if s.HeroConfig == nil {
		return 0
	}
	slides, ok := s.HeroConfig["slides"].([]interface{})
	if !ok {
		return 0
	}
	return len(slides)
}

// HasStory is true when either the story column or about_content.story is filled.
func (s *ArtisanShop) HasStory() bool {
	if strings.TrimSpace(s.Story) != "" {
		return true
	}
	return strings.TrimSpace(s.AboutContent.String("story")) != ""
}

// ContactEmail and ContactPhone read contact_config first, then contact_info.
func (s *ArtisanShop) ContactEmail() string {
	if v := s.ContactConfig.String("email"); v != "" {
		return v
	}
	return s.ContactInfo.String("email")
}

func (s *ArtisanShop) ContactPhone() string {
	for _, key := range []string{"phone", "whatsapp"} {
		if v := s.ContactConfig.String(key); v != "" {
			return v
		}
	}
	return s.ContactInfo.String("phone")
}

func (s *ArtisanShop) HasSocialLinks() bool {
	for _, v := range s.SocialLinks {
		if str, ok := v.(string); ok && strings.TrimSpace(str) != "" {
			return true
		}
	}
	return false
}
