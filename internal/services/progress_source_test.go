package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/progress"
)

func TestSnapshotMissionState(t *testing.T) {
	counterparty := "cp_123"
	snap := &UserSnapshot{
		Shop: &models.ArtisanShop{
			LogoURL:        "https://cdn.example.com/logo.png",
			PrimaryColors:  models.JSONArray{"#aa3300"},
			HeroConfig:     models.JSONB{"slides": []interface{}{map[string]interface{}{"title": "Hola"}}},
			ContactConfig:  models.JSONB{"whatsapp": "3001234567"},
			IDContraparty:  &counterparty,
			BankDataStatus: models.BankDataStatusApproved,
		},
		Context:      &models.UserMasterContext{NIT: "900123456", NITPending: false, BrandScore: 85},
		Maturity:     &models.UserMaturityScore{ProfileData: models.JSONB{"answers": []interface{}{1, 2, 3, 4, 5, 6, 7}}},
		ProductCount: 6,
	}

	st := snap.MissionState()
	assert.True(t, st.HasShop)
	assert.True(t, st.HasRUT)
	assert.True(t, st.HasBankData)
	assert.True(t, st.HasBrandIdentity)
	assert.True(t, st.HasHeroSlider)
	assert.True(t, st.HasContactInfo)
	assert.False(t, st.HasSocialLinks)
	assert.Equal(t, 6, st.ProductCount)
	assert.Equal(t, 85, st.BrandScore)
	assert.Equal(t, 7, st.MaturityAnswered)
}

func TestSnapshotPendingNITIsNotRUT(t *testing.T) {
	snap := &UserSnapshot{Context: &models.UserMasterContext{NIT: "900123456", NITPending: true}}
	assert.False(t, snap.MissionState().HasRUT)
}

func TestSnapshotMaturityWithoutAnswersCountsAsComplete(t *testing.T) {
	snap := &UserSnapshot{Maturity: &models.UserMaturityScore{}}
	assert.Equal(t, completeMaturityAnswers, snap.MissionState().MaturityAnswered)
}

func TestSnapshotGamificationDefaults(t *testing.T) {
	assert.Equal(t, progress.DefaultGamification(), (&UserSnapshot{}).Gamification())

	snap := &UserSnapshot{Progress: &models.UserProgress{Level: 4, ExperiencePoints: 20, NextLevelXP: 337}}
	assert.Equal(t, progress.Gamification{Level: 4, XP: 20, NextLevelXP: 337}, snap.Gamification())
}

func TestCompletedMissionsMergesSources(t *testing.T) {
	snap := &UserSnapshot{
		Shop:    &models.ArtisanShop{},
		Context: &models.UserMasterContext{NIT: "900123456", CompletedMissions: models.JSONArray{"custom", "create_shop"}},
	}

	got := snap.CompletedMissions([]string{"create_shop", "from_task"})
	assert.Equal(t, []string{"complete_rut", "create_shop", "custom", "from_task"}, got)
}
