package services

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestNextModerationStatus(t *testing.T) {
	tests := map[ModerationAction]models.ModerationStatus{
		ModerationApprove:          models.ModerationStatusApproved,
		ModerationApproveWithEdits: models.ModerationStatusApprovedWithEdits,
		ModerationRequestChanges:   models.ModerationStatusChangesRequested,
		ModerationReject:           models.ModerationStatusRejected,
	}
	for action, want := range tests {
		got, err := NextModerationStatus(action)
		require.NoError(t, err, action)
		assert.Equal(t, want, got, action)
	}

	_, err := NextModerationStatus("publish")
	assert.ErrorIs(t, err, ErrInvalidModerationAction)
}

func TestModeratable(t *testing.T) {
	assert.True(t, Moderatable(models.ModerationStatusPending))
	assert.True(t, Moderatable(models.ModerationStatusApproved))
	assert.True(t, Moderatable(models.ModerationStatusRejected))
	assert.False(t, Moderatable(models.ModerationStatusDraft))
	assert.False(t, Moderatable(models.ModerationStatusArchived))
}

func TestModerationEditColumns(t *testing.T) {
	cols, err := ModerationEditColumns(map[string]interface{}{
		"name":       "  Ruana de lana ",
		"tags":       []interface{}{"lana", "boyacá"},
		"price":      float64(180000),
		"inventory":  float64(3),
		"dimensions": map[string]interface{}{"length": 120.0, "width": 80.0, "height": 1.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ruana de lana", cols["name"])
	assert.Equal(t, pq.StringArray{"lana", "boyacá"}, cols["tags"])
	assert.Equal(t, float64(180000), cols["price"])
	assert.Equal(t, 3, cols["inventory"])
	assert.Equal(t, models.JSONB{"length": 120.0, "width": 80.0, "height": 1.0}, cols["dimensions"])
}

func TestModerationEditColumnsRejectsInvalid(t *testing.T) {
	cases := []map[string]interface{}{
		{"shop_id": "x"},
		{"moderation_status": "approved"},
		{"name": 12.0},
		{"tags": []interface{}{"ok", 3.0}},
		{"price": -1.0},
		{"inventory": 2.5},
		{"dimensions": "10x10"},
	}
	for _, edits := range cases {
		_, err := ModerationEditColumns(edits)
		assert.True(t, errors.Is(err, ErrInvalidEdit), "%v", edits)
	}
}

func TestApplyEditsRecomputesShipping(t *testing.T) {
	p := &models.Product{}
	assert.False(t, p.HasShippingData())

	applyEdits(p, map[string]interface{}{
		"weight":     1.2,
		"dimensions": models.JSONB{"length": 20.0, "width": 10.0, "height": 5.0},
	})
	assert.True(t, p.HasShippingData())
}
