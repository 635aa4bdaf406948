package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/models"
)

const (
	baseLevelXP     = 100
	levelXPGrowth   = 1.5
	missionXPReward = 50
)

type AddProgressRequest struct {
	XPGained         int  `json:"xp_gained" validate:"min=0,max=10000"`
	MissionCompleted bool `json:"mission_completed"`
	TimeSpent        int  `json:"time_spent" validate:"min=0"`
}

// ProgressResult is what AddProgress changed.
type ProgressResult struct {
	Progress        *models.UserProgress     `json:"progress"`
	LeveledUp       bool                     `json:"leveled_up"`
	LevelsGained    int                      `json:"levels_gained"`
	NewAchievements []models.UserAchievement `json:"new_achievements"`
}

// AchievementStats are the values achievement criteria are checked against.
type AchievementStats struct {
	MissionsCompleted  int
	Level              int
	Streak             int
	OnboardingComplete bool
}

type UserProgressService struct {
	db  *gorm.DB
	bus events.Publisher
	now func() time.Time
}

func NewUserProgressService(db *gorm.DB, bus events.Publisher) *UserProgressService {
	return &UserProgressService{db: db, bus: bus, now: time.Now}
}

// NextLevelXP is the xp needed to leave level: floor(100 * 1.5^(level-1)).
func NextLevelXP(level int) int {
	if level < 1 {
		level = 1
	}
	return int(math.Floor(baseLevelXP * math.Pow(levelXPGrowth, float64(level-1))))
}

// ApplyXP adds gained xp and levels up as many times as the xp allows.
// Leftover xp carries into the new level.
func ApplyXP(level, xp, gained int) (newLevel, newXP, next, levelsGained int) {
	if level < 1 {
		level = 1
	}
	xp += gained
	next = NextLevelXP(level)
	for xp >= next {
		xp -= next
		level++
		levelsGained++
		next = NextLevelXP(level)
	}
	return level, xp, next, levelsGained
}

// UpdateStreak applies one day of activity. Activity on the same day keeps
// the streak, the next day extends it, and a gap restarts it at one.
func UpdateStreak(last *time.Time, current, longest int, today time.Time) (int, int) {
	day := truncateDay(today)
	switch {
	case last == nil:
		current = 1
	case truncateDay(*last).Equal(day):
		if current == 0 {
			current = 1
		}
	case truncateDay(*last).AddDate(0, 0, 1).Equal(day):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CriteriaMet evaluates one catalog entry's unlock criteria.
func CriteriaMet(criteria models.JSONB, stats AchievementStats) bool {
	switch criteria.String("type") {
	case "missions_completed":
		return stats.MissionsCompleted >= payloadInt(criteria, "count")
	case "level_reached":
		return stats.Level >= payloadInt(criteria, "level")
	case "streak_reached":
		return stats.Streak >= payloadInt(criteria, "days")
	case "onboarding_complete":
		return stats.OnboardingComplete
	}
	return false
}

func (s *UserProgressService) GetProgress(ctx context.Context, userID uuid.UUID) (*models.UserProgress, error) {
	var p models.UserProgress
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserProgress{UserID: userID, Level: 1, NextLevelXP: NextLevelXP(1)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return &p, nil
}

// AddProgress records xp, mission completion and time spent, creating the
// progress row on first use. Level ups and new achievements are published
// after commit.
func (s *UserProgressService) AddProgress(ctx context.Context, userID uuid.UUID, req AddProgressRequest) (*ProgressResult, error) {
	result := &ProgressResult{}
	today := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.UserProgress
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = models.UserProgress{UserID: userID, Level: 1, NextLevelXP: NextLevelXP(1)}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
				return fmt.Errorf("failed to create progress: %w", err)
			}
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&p).Error; err != nil {
				return fmt.Errorf("failed to load progress: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to load progress: %w", err)
		}

		level, xp, next, gained := ApplyXP(p.Level, p.ExperiencePoints, req.XPGained)
		p.Level, p.ExperiencePoints, p.NextLevelXP = level, xp, next
		result.LevelsGained = gained
		result.LeveledUp = gained > 0

		if req.MissionCompleted {
			p.CompletedMissions++
		}
		p.TotalTimeSpent += req.TimeSpent
		p.CurrentStreak, p.LongestStreak = UpdateStreak(p.LastActivityDate, p.CurrentStreak, p.LongestStreak, today)
		day := truncateDay(today)
		p.LastActivityDate = &day

		if err := tx.Save(&p).Error; err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		result.Progress = &p

		unlocked, err := s.unlockAchievements(tx, &p, today)
		if err != nil {
			return err
		}
		result.NewAchievements = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.LeveledUp {
		s.bus.Publish(ctx, events.Event{
			Name:    events.LevelUp,
			UserID:  userID,
			Payload: map[string]interface{}{"level": result.Progress.Level, "levelsGained": result.LevelsGained},
		})
	}
	for _, a := range result.NewAchievements {
		s.bus.Publish(ctx, events.Event{
			Name:   events.AchievementUnlocked,
			UserID: userID,
			Payload: map[string]interface{}{
				"achievementId": a.AchievementID,
				"title":         a.Title,
				"description":   a.Description,
				"icon":          a.Icon,
			},
		})
	}
	return result, nil
}

// CheckAchievements re-evaluates the catalog outside of an xp change, e.g.
// after the maturity test is saved.
func (s *UserProgressService) CheckAchievements(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	p, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	var unlocked []models.UserAchievement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		unlocked, err = s.unlockAchievements(tx, p, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, a := range unlocked {
		s.bus.Publish(ctx, events.Event{
			Name:    events.AchievementUnlocked,
			UserID:  userID,
			Payload: map[string]interface{}{"achievementId": a.AchievementID, "title": a.Title, "description": a.Description, "icon": a.Icon},
		})
	}
	return unlocked, nil
}

func (s *UserProgressService) unlockAchievements(tx *gorm.DB, p *models.UserProgress, now time.Time) ([]models.UserAchievement, error) {
	var catalog []models.AchievementCatalog
	if err := tx.Order("display_order ASC").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("failed to load achievements catalog: %w", err)
	}

	var owned []string
	if err := tx.Model(&models.UserAchievement{}).
		Where("user_id = ?", p.UserID).
		Pluck("achievement_id", &owned).Error; err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	has := make(map[string]bool, len(owned))
	for _, id := range owned {
		has[id] = true
	}

	var maturityRows int64
	if err := tx.Model(&models.UserMaturityScore{}).Where("user_id = ?", p.UserID).Count(&maturityRows).Error; err != nil {
		return nil, fmt.Errorf("failed to check maturity scores: %w", err)
	}

	stats := AchievementStats{
		MissionsCompleted:  p.CompletedMissions,
		Level:              p.Level,
		Streak:             p.CurrentStreak,
		OnboardingComplete: maturityRows > 0,
	}

	var unlocked []models.UserAchievement
	for _, a := range catalog {
		if has[a.ID] || !CriteriaMet(a.UnlockCriteria, stats) {
			continue
		}
		ua := models.UserAchievement{
			UserID:        p.UserID,
			AchievementID: a.ID,
			Title:         a.Title,
			Description:   a.Description,
			Icon:          a.Icon,
			UnlockedAt:    now,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ua)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to unlock achievement %s: %w", a.ID, res.Error)
		}
		if res.RowsAffected > 0 {
			unlocked = append(unlocked, ua)
		}
	}

	if len(unlocked) > 0 {
		logrus.WithFields(logrus.Fields{"user_id": p.UserID, "count": len(unlocked)}).Info("Achievements unlocked")
	}
	return unlocked, nil
}

// Achievements lists the user's unlocked achievements, newest first.
func (s *UserProgressService) Achievements(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return rows, nil
}

// Catalog lists every achievement with its display order.
func (s *UserProgressService) Catalog(ctx context.Context) ([]models.AchievementCatalog, error) {
	var rows []models.AchievementCatalog
	if err := s.db.WithContext(ctx).Order("display_order ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list achievements catalog: %w", err)
	}
	return rows, nil
}
