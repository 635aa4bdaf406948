package services

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestEditable(t *testing.T) {
	assert.True(t, Editable(models.ModerationStatusDraft))
	assert.True(t, Editable(models.ModerationStatusChangesRequested))
	assert.True(t, Editable(models.ModerationStatusApproved))
	assert.False(t, Editable(models.ModerationStatusPending))
	assert.False(t, Editable(models.ModerationStatusArchived))
}

func TestProductUpdatesClassifiesChanges(t *testing.T) {
	updates, content, inventory := ProductUpdates(&UpdateProductRequest{Inventory: ptr(4)})
	assert.False(t, content)
	assert.True(t, inventory)
	assert.Equal(t, map[string]interface{}{"inventory": 4}, updates)

	updates, content, inventory = ProductUpdates(&UpdateProductRequest{
		Name: ptr(" Mochila Wayuu "),
		Tags: []string{"tejido", "wayuu"},
	})
	assert.True(t, content)
	assert.False(t, inventory)
	assert.Equal(t, "Mochila Wayuu", updates["name"])
	assert.Equal(t, pq.StringArray{"tejido", "wayuu"}, updates["tags"])

	// shipping details and sku do not send the listing back to review
	_, content, _ = ProductUpdates(&UpdateProductRequest{
		Weight:     ptr(0.8),
		Dimensions: map[string]interface{}{"length": 30.0},
		SKU:        ptr("MW-01"),
	})
	assert.False(t, content)
}
