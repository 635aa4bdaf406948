package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/missions"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/progress"
)

// completeMaturityAnswers is assumed when a maturity row has no answer list.
const completeMaturityAnswers = 30

// UserSnapshot is everything the engines read about a user in one load.
type UserSnapshot struct {
	Shop         *models.ArtisanShop
	Context      *models.UserMasterContext
	Maturity     *models.UserMaturityScore
	Progress     *models.UserProgress
	ProductCount int
}

// ProgressSource loads calculator and mission inputs from the database.
type ProgressSource struct {
	db *gorm.DB
}

func NewProgressSource(db *gorm.DB) *ProgressSource {
	return &ProgressSource{db: db}
}

func (s *ProgressSource) Snapshot(ctx context.Context, userID uuid.UUID) (*UserSnapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &UserSnapshot{}

	var shop models.ArtisanShop
	err := db.Where("user_id = ?", userID).First(&shop).Error
	switch {
	case err == nil:
		snap.Shop = &shop
		var count int64
		if err := db.Model(&models.Product{}).
			Where("shop_id = ? AND moderation_status <> ?", shop.ID, models.ModerationStatusArchived).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
		snap.ProductCount = int(count)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load shop: %w", err)
	}

	var mc models.UserMasterContext
	if err := optional(db.Where("user_id = ?", userID).First(&mc).Error); err != nil {
		return nil, fmt.Errorf("failed to load master context: %w", err)
	}
	if mc.UserID != uuid.Nil {
		snap.Context = &mc
	}

	var ms models.UserMaturityScore
	if err := optional(db.Where("user_id = ?", userID).Order("created_at DESC").First(&ms).Error); err != nil {
		return nil, fmt.Errorf("failed to load maturity scores: %w", err)
	}
	if ms.UserID != uuid.Nil {
		snap.Maturity = &ms
	}

	var up models.UserProgress
	if err := optional(db.Where("user_id = ?", userID).First(&up).Error); err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if up.UserID != uuid.Nil {
		snap.Progress = &up
	}
	return snap, nil
}

func optional(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Inputs implements progress.Source.
func (s *ProgressSource) Inputs(ctx context.Context, userID uuid.UUID) (progress.MasterState, progress.MaturityScores, progress.Gamification, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return progress.MasterState{}, progress.MaturityScores{}, progress.Gamification{}, err
	}
	return snap.MasterState(), snap.MaturityScores(), snap.Gamification(), nil
}

// UserState loads the mission discovery view of the user.
func (s *ProgressSource) UserState(ctx context.Context, userID uuid.UUID) (missions.UserState, *UserSnapshot, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return missions.UserState{}, nil, err
	}
	return snap.MissionState(), snap, nil
}

func (u *UserSnapshot) MasterState() progress.MasterState {
	var st progress.MasterState
	if u.Context != nil {
		st.NIT = strings.TrimSpace(u.Context.NIT)
		st.NITPending = u.Context.NITPending
		st.BrandScore = u.Context.BrandScore
	}
	if u.Shop != nil {
		st.HasShop = true
		st.BrandLogo = u.Shop.LogoURL
		st.BrandColors = len(u.Shop.PrimaryColors)
		st.ProductCount = u.ProductCount
		st.HasHeroSlider = u.Shop.HeroSlideCount() > 0
		st.HasStory = u.Shop.HasStory()
		st.HasContactInfo = u.Shop.ContactEmail() != "" || u.Shop.ContactPhone() != ""
		st.HasSocialLinks = u.Shop.HasSocialLinks()
	}
	return st
}

func (u *UserSnapshot) MaturityScores() progress.MaturityScores {
	if u.Maturity == nil {
		return progress.MaturityScores{}
	}
	return progress.MaturityScores{
		IdeaValidation: u.Maturity.IdeaValidation,
		UserExperience: u.Maturity.UserExperience,
		MarketFit:      u.Maturity.MarketFit,
		Monetization:   u.Maturity.Monetization,
	}
}

func (u *UserSnapshot) Gamification() progress.Gamification {
	if u.Progress == nil {
		return progress.DefaultGamification()
	}
	return progress.Gamification{
		Level:       u.Progress.Level,
		XP:          u.Progress.ExperiencePoints,
		NextLevelXP: u.Progress.NextLevelXP,
	}
}

func (u *UserSnapshot) MissionState() missions.UserState {
	ms := u.MasterState()
	st := missions.UserState{
		HasShop:          ms.HasShop,
		BrandScore:       ms.BrandScore,
		ProductCount:     ms.ProductCount,
		HasRUT:           ms.NIT != "" && !ms.NITPending,
		HasHeroSlider:    ms.HasHeroSlider,
		HasStory:         ms.HasStory,
		HasContactInfo:   ms.HasContactInfo,
		HasSocialLinks:   ms.HasSocialLinks,
		HasBrandIdentity: ms.BrandLogo != "" && ms.BrandColors > 0,
	}
	if u.Shop != nil {
		st.HasBankData = u.Shop.HasCounterparty() || u.Shop.BankDataStatus == models.BankDataStatusApproved
		st.ArtisanProfile = u.Shop.ArtisanProfileCompleted
	}
	if u.Maturity != nil {
		st.MaturityAnswered = completeMaturityAnswers
		if answers, ok := u.Maturity.ProfileData["answers"].([]interface{}); ok {
			st.MaturityAnswered = len(answers)
		}
	}
	return st
}

// CompletedMissions merges missions satisfied by data, missions recorded in
// the master context and tasks the user completed.
func (u *UserSnapshot) CompletedMissions(completedTaskAgents []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	add(missions.AutoCompleted(u.MissionState()))
	if u.Context != nil {
		add(u.Context.CompletedMissionIDs())
	}
	add(completedTaskAgents)
	return out
}
