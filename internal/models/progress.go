// internal/models/progress.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is the gamification record: xp, level, streaks.
type UserProgress struct {
	BaseModel
	UserID            uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	ExperiencePoints  int        `json:"experience_points" gorm:"not null;default:0"`
	Level             int        `json:"level" gorm:"not null;default:1"`
	NextLevelXP       int        `json:"next_level_xp" gorm:"column:next_level_xp;not null;default:100"`
	CompletedMissions int        `json:"completed_missions" gorm:"not null;default:0"`
	CurrentStreak     int        `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak     int        `json:"longest_streak" gorm:"not null;default:0"`
	TotalTimeSpent    int        `json:"total_time_spent" gorm:"not null;default:0"`
	LastActivityDate  *time.Time `json:"last_activity_date" gorm:"type:date"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// AchievementCatalog is the global list of unlockable badges.
type AchievementCatalog struct {
	ID             string    `json:"id" gorm:"primaryKey;size:100"`
	Title          string    `json:"title" gorm:"size:255;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	Icon           string    `json:"icon" gorm:"size:50"`
	Category       string    `json:"category" gorm:"size:50"`
	UnlockCriteria JSONB     `json:"unlock_criteria" gorm:"type:jsonb;not null"`
	DisplayOrder   int       `json:"display_order" gorm:"default:0"`
	CreatedAt      time.Time `json:"created_at"`
}

func (AchievementCatalog) TableName() string {
	return "achievements_catalog"
}

type UserAchievement struct {
	BaseModel
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement"`
	AchievementID string    `json:"achievement_id" gorm:"size:100;not null;uniqueIndex:idx_user_achievement"`
	Title         string    `json:"title" gorm:"size:255"`
	Description   string    `json:"description" gorm:"type:text"`
	Icon          string    `json:"icon" gorm:"size:50"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// UserMaturityScore stores a self-assessment result.
type UserMaturityScore struct {
	BaseModel
	UserID         uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	IdeaValidation int       `json:"idea_validation" gorm:"not null;default:0"`
	UserExperience int       `json:"user_experience" gorm:"not null;default:0"`
	MarketFit      int       `json:"market_fit" gorm:"not null;default:0"`
	Monetization   int       `json:"monetization" gorm:"not null;default:0"`
	ProfileData    JSONB     `json:"profile_data" gorm:"type:jsonb"`
}

// UserMasterContext aggregates per-user business context that is not owned
// by the shop row: legal registration, brand evaluation and completed missions.
type UserMasterContext struct {
	BaseModel
	UserID            uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	NIT               string    `json:"nit" gorm:"column:nit;size:30"`
	NITPending        bool      `json:"nit_pendiente" gorm:"column:nit_pendiente;default:true"`
	BrandScore        int       `json:"brand_score" gorm:"default:0"`
	BusinessProfile   JSONB     `json:"business_profile" gorm:"type:jsonb"`
	CompletedMissions JSONArray `json:"completed_missions" gorm:"type:jsonb"`
}

func (UserMasterContext) TableName() string {
	return "user_master_context"
}

// CompletedMissionIDs returns the mission ids stored in CompletedMissions.
func (c *UserMasterContext) CompletedMissionIDs() []string {
	out := make([]string, 0, len(c.CompletedMissions))
	for _, v := range c.CompletedMissions {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
