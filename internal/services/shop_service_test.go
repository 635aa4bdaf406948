package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestNextSlug(t *testing.T) {
	assert.Equal(t, "telar-andino", NextSlug("telar-andino", nil))
	assert.Equal(t, "telar-andino-2", NextSlug("telar-andino", []string{"telar-andino"}))
	assert.Equal(t, "telar-andino-4", NextSlug("telar-andino", []string{"telar-andino", "telar-andino-2", "telar-andino-3"}))
	assert.Equal(t, "telar-andino-2", NextSlug("telar-andino", []string{"telar-andino", "telar-andino-3"}))
}

func TestShopUpdatesOnlyTouchesGivenFields(t *testing.T) {
	updates, brand := ShopUpdates(&UpdateShopRequest{
		ShopName:    ptr("  Telar Andino "),
		Region:      ptr("Nariño"),
		SocialLinks: map[string]interface{}{"instagram": "@telar"},
	})

	assert.False(t, brand)
	assert.Len(t, updates, 3)
	assert.Equal(t, "Telar Andino", updates["shop_name"])
	assert.Equal(t, models.JSONB{"instagram": "@telar"}, updates["social_links"])
}

func TestShopUpdatesFlagsBrandChanges(t *testing.T) {
	_, brand := ShopUpdates(&UpdateShopRequest{PrimaryColors: []interface{}{"#aa3300"}})
	assert.True(t, brand)

	_, brand = ShopUpdates(&UpdateShopRequest{LogoURL: ptr("https://cdn.example.com/logo.png")})
	assert.True(t, brand)

	updates, brand := ShopUpdates(&UpdateShopRequest{})
	assert.False(t, brand)
	assert.Empty(t, updates)
}
