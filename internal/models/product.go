// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product maps shop.products.
type Product struct {
	ID                   uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ShopID               uuid.UUID        `json:"shop_id" gorm:"type:uuid;not null"`
	Name                 string           `json:"name" gorm:"not null"`
	Description          string           `json:"description"`
	ShortDescription     string           `json:"short_description"`
	Price                float64          `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	ComparePrice         *float64         `json:"compare_price" gorm:"type:numeric(12,2)"`
	Currency             string           `json:"currency" gorm:"type:char(3);not null;default:'COP'"`
	Category             string           `json:"category"`
	Subcategory          string           `json:"subcategory"`
	Tags                 pq.StringArray   `json:"tags" gorm:"type:text[]"`
	Materials            pq.StringArray   `json:"materials" gorm:"type:text[]"`
	Techniques           pq.StringArray   `json:"techniques" gorm:"type:text[]"`
	Images               pq.StringArray   `json:"images" gorm:"type:text[]"`
	Inventory            int              `json:"inventory" gorm:"not null;default:0"`
	SKU                  *string          `json:"sku" gorm:"column:sku"`
	Weight               *float64         `json:"weight" gorm:"type:numeric(10,3)"`
	Dimensions           JSONB            `json:"dimensions" gorm:"type:jsonb"`
	ShippingDataComplete bool             `json:"shipping_data_complete" gorm:"not null;default:false"`
	Active               bool             `json:"active" gorm:"not null;default:false"`
	Featured             bool             `json:"featured" gorm:"not null;default:false"`
	ModerationStatus     ModerationStatus `json:"moderation_status" gorm:"not null;default:'draft'"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`

	Shop *ArtisanShop `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
}

func (Product) TableName() string {
	return "shop.products"
}

// PriceMinor returns the price in minor currency units.
func (p *Product) PriceMinor() int64 {
	return int64(p.Price*100 + 0.5)
}

// HasShippingData is true when weight and the three package dimensions are positive.
func (p *Product) HasShippingData() bool {
	if p.Weight == nil || *p.Weight <= 0 || p.Dimensions == nil {
		return false
	}
	for _, key := range []string{"length", "width", "height"} {
		if dimensionValue(p.Dimensions[key]) <= 0 {
			return false
		}
	}
	return true
}

func dimensionValue(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// ProductModerationHistory records every moderation decision.
type ProductModerationHistory struct {
	BaseModel
	ProductID      uuid.UUID        `json:"product_id" gorm:"type:uuid;not null;index"`
	PreviousStatus ModerationStatus `json:"previous_status" gorm:"type:varchar(30)"`
	NewStatus      ModerationStatus `json:"new_status" gorm:"type:varchar(30);not null"`
	ModeratorID    uuid.UUID        `json:"moderator_id" gorm:"type:uuid;not null;index"`
	Comment        string           `json:"comment" gorm:"type:text"`
	EditsMade      JSONB            `json:"edits_made" gorm:"type:jsonb"`
}

func (ProductModerationHistory) TableName() string {
	return "product_moderation_history"
}
