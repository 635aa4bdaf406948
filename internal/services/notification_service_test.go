package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/i18n"
)

func TestNotificationForEvent(t *testing.T) {
	require.NoError(t, i18n.Initialize("es"))

	req, ok := NotificationForEvent("es", events.Event{
		Name:    events.MilestoneCompleted,
		UserID:  testUserID,
		Payload: map[string]interface{}{"milestoneName": "Formalización"},
	})
	require.True(t, ok)
	assert.Equal(t, NotificationMilestone, req.Type)
	assert.Equal(t, testUserID, req.UserID)
	assert.Contains(t, req.Message, "Formalización")

	req, ok = NotificationForEvent("es", events.Event{
		Name:    events.LevelUp,
		UserID:  testUserID,
		Payload: map[string]interface{}{"level": float64(4)},
	})
	require.True(t, ok)
	assert.Equal(t, NotificationLevelUp, req.Type)
	assert.Contains(t, req.Message, "4")

	req, ok = NotificationForEvent("es", events.Event{
		Name:    events.AchievementUnlocked,
		Payload: map[string]interface{}{"title": "Primer paso", "description": "Completaste una misión"},
	})
	require.True(t, ok)
	assert.Equal(t, "Primer paso: Completaste una misión", req.Message)

	_, ok = NotificationForEvent("es", events.Event{Name: events.TaskUpdated})
	assert.False(t, ok)
}

func TestPayloadHelpers(t *testing.T) {
	p := map[string]interface{}{"a": "x", "n": float64(3), "i": 7, "bad": true}
	assert.Equal(t, "x", payloadString(p, "a"))
	assert.Equal(t, "", payloadString(p, "n"))
	assert.Equal(t, 3, payloadInt(p, "n"))
	assert.Equal(t, 7, payloadInt(p, "i"))
	assert.Equal(t, 0, payloadInt(p, "bad"))
	assert.Equal(t, 0, payloadInt(p, "missing"))
}
