package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestNextLevelXP(t *testing.T) {
	assert.Equal(t, 100, NextLevelXP(1))
	assert.Equal(t, 150, NextLevelXP(2))
	assert.Equal(t, 225, NextLevelXP(3))
	assert.Equal(t, 337, NextLevelXP(4))
	assert.Equal(t, 100, NextLevelXP(0))
}

func TestApplyXP(t *testing.T) {
	level, xp, next, gained := ApplyXP(1, 40, 30)
	assert.Equal(t, []int{1, 70, 100, 0}, []int{level, xp, next, gained})

	level, xp, next, gained = ApplyXP(1, 90, 10)
	assert.Equal(t, []int{2, 0, 150, 1}, []int{level, xp, next, gained})

	// several levels at once, leftover carries
	level, xp, next, gained = ApplyXP(1, 0, 260)
	assert.Equal(t, []int{3, 10, 225, 2}, []int{level, xp, next, gained})
}

func TestUpdateStreak(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 3, d, 15, 0, 0, 0, time.UTC) }
	last := func(d int) *time.Time { t := day(d); return &t }

	current, longest := UpdateStreak(nil, 0, 0, day(1))
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)

	current, longest = UpdateStreak(last(1), 3, 5, day(1))
	assert.Equal(t, 3, current)
	assert.Equal(t, 5, longest)

	current, longest = UpdateStreak(last(1), 5, 5, day(2))
	assert.Equal(t, 6, current)
	assert.Equal(t, 6, longest)

	current, longest = UpdateStreak(last(1), 6, 6, day(4))
	assert.Equal(t, 1, current)
	assert.Equal(t, 6, longest)
}

func TestCriteriaMet(t *testing.T) {
	stats := AchievementStats{MissionsCompleted: 5, Level: 3, Streak: 7, OnboardingComplete: true}

	assert.True(t, CriteriaMet(models.JSONB{"type": "missions_completed", "count": float64(5)}, stats))
	assert.False(t, CriteriaMet(models.JSONB{"type": "missions_completed", "count": float64(10)}, stats))
	assert.True(t, CriteriaMet(models.JSONB{"type": "level_reached", "level": 3}, stats))
	assert.False(t, CriteriaMet(models.JSONB{"type": "level_reached", "level": 4}, stats))
	assert.True(t, CriteriaMet(models.JSONB{"type": "streak_reached", "days": float64(7)}, stats))
	assert.True(t, CriteriaMet(models.JSONB{"type": "onboarding_complete"}, stats))
	assert.False(t, CriteriaMet(models.JSONB{"type": "onboarding_complete"}, AchievementStats{}))
	assert.False(t, CriteriaMet(models.JSONB{"type": "unknown"}, stats))
}
