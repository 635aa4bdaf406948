// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/missions"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/progress"
	"github.com/javajoker/artisans-backend/internal/state"
)

// ProgressReader computes a user's unified progress on demand.
type ProgressReader interface {
	Recompute(ctx context.Context, userID uuid.UUID) (progress.UnifiedProgress, error)
}

type UpdateUserProfileRequest struct {
	FullName    *string                `json:"full_name,omitempty" validate:"omitempty,max=255"`
	Phone       *string                `json:"phone,omitempty" validate:"omitempty,max=30"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

type UpdateMasterContextRequest struct {
	NIT               *string                `json:"nit,omitempty" validate:"omitempty,nit"`
	NITPending        *bool                  `json:"nit_pendiente,omitempty"`
	BrandScore        *int                   `json:"brand_score,omitempty" validate:"omitempty,min=0,max=100"`
	BusinessProfile   map[string]interface{} `json:"business_profile,omitempty"`
	CompletedMissions []string               `json:"completed_missions,omitempty"`
}

type SaveMaturityRequest struct {
	IdeaValidation int                    `json:"idea_validation" validate:"min=0,max=100"`
	UserExperience int                    `json:"user_experience" validate:"min=0,max=100"`
	MarketFit      int                    `json:"market_fit" validate:"min=0,max=100"`
	Monetization   int                    `json:"monetization" validate:"min=0,max=100"`
	ProfileData    map[string]interface{} `json:"profile_data,omitempty"`
}

type UserService struct {
	db             *gorm.DB
	storageService *StorageService
	bus            events.Publisher
	progress       *UserProgressService
	source         *ProgressSource
	catalog        *missions.Catalog
	tracker        ProgressReader
	store          state.Store
}

func NewUserService(db *gorm.DB, storageService *StorageService, bus events.Publisher, progressService *UserProgressService, source *ProgressSource, catalog *missions.Catalog, tracker ProgressReader, store state.Store) *UserService {
	return &UserService{
		db:             db,
		storageService: storageService,
		bus:            bus,
		progress:       progressService,
		source:         source,
		catalog:        catalog,
		tracker:        tracker,
		store:          store,
	}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// UpdateProfile merges the given fields into the user's metadata.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	meta := user.RawUserMetaData
	if meta == nil {
		meta = make(models.JSONB)
	}
	for key, value := range req.ProfileData {
		meta[key] = value
	}
	if req.FullName != nil {
		meta["full_name"] = strings.TrimSpace(*req.FullName)
	}

	updates := map[string]interface{}{"raw_user_meta_data": meta}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		updates["phone"] = phone
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetUserByID(ctx, userID)
}

// UploadAvatar stores the image and records its URL in the user's metadata.
// The previous avatar is removed once the new one is saved.
func (s *UserService) UploadAvatar(ctx context.Context, userID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*models.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.storageService.UploadFile(ctx, file, header, s.storageService.GetDefaultUploadOptions("avatars"))
	if err != nil {
		return nil, err
	}

	meta := user.RawUserMetaData
	if meta == nil {
		meta = make(models.JSONB)
	}
	previous := meta.String("avatar_url")
	meta["avatar_url"] = result.URL

	if err := s.db.WithContext(ctx).Model(user).Update("raw_user_meta_data", meta).Error; err != nil {
		_ = s.storageService.DeleteFile(ctx, result.Key)
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}
	if previous != "" {
		if err := s.storageService.DeleteByURL(ctx, previous); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to delete previous avatar")
		}
	}
	return s.GetUserByID(ctx, userID)
}

// DeleteAccount soft deletes a user that has no shop with active products.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.EncryptedPassword != "" {
		if err := user.CheckPassword(password); err != nil {
			return ErrInvalidCredentials
		}
	}

	var active int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN shop.artisan_shops s ON s.id = products.shop_id").
		Where("s.user_id = ? AND products.active = ?", userID, true).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to check products: %w", err)
	}
	if active > 0 {
		return errors.New("cannot delete account with active products")
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if s.store != nil {
		if err := s.store.Clear(ctx, userID); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to clear engine session")
		}
	}
	return nil
}

func (s *UserService) GetMasterContext(ctx context.Context, userID uuid.UUID) (*models.UserMasterContext, error) {
	var mc models.UserMasterContext
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&mc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.UserMasterContext{UserID: userID, NITPending: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load master context: %w", err)
	}
	return &mc, nil
}

// UpdateMasterContext upserts the user's business context. Registering a
// NIT publishes legal.nit.completed in addition to master.context.updated.
func (s *UserService) UpdateMasterContext(ctx context.Context, userID uuid.UUID, req *UpdateMasterContextRequest) (*models.UserMasterContext, error) {
	nitCompleted := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mc models.UserMasterContext
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&mc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			mc = models.UserMasterContext{UserID: userID, NITPending: true}
		} else if err != nil {
			return fmt.Errorf("failed to load master context: %w", err)
		}
		hadNIT := strings.TrimSpace(mc.NIT) != "" && !mc.NITPending

		if req.NIT != nil {
			mc.NIT = strings.TrimSpace(*req.NIT)
			mc.NITPending = mc.NIT == ""
		}
		if req.NITPending != nil {
			mc.NITPending = *req.NITPending
		}
		if req.BrandScore != nil {
			mc.BrandScore = *req.BrandScore
		}
		if req.BusinessProfile != nil {
			if mc.BusinessProfile == nil {
				mc.BusinessProfile = make(models.JSONB)
			}
			for k, v := range req.BusinessProfile {
				mc.BusinessProfile[k] = v
			}
		}
		if len(req.CompletedMissions) > 0 {
			mc.CompletedMissions = mergeMissionIDs(mc.CompletedMissionIDs(), req.CompletedMissions)
		}

		nitCompleted = !hadNIT && mc.NIT != "" && !mc.NITPending
		return tx.Save(&mc).Error
	})
	if err != nil {
		return nil, err
	}

	if nitCompleted {
		s.bus.Publish(ctx, events.Event{Name: events.LegalNITCompleted, UserID: userID})
	}
	s.bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: userID})
	return s.GetMasterContext(ctx, userID)
}

func mergeMissionIDs(existing, added []string) models.JSONArray {
	seen := make(map[string]bool, len(existing)+len(added))
	out := make(models.JSONArray, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, id := range list {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// SaveMaturityScores stores a self-assessment and re-checks achievements,
// since the first assessment completes onboarding.
func (s *UserService) SaveMaturityScores(ctx context.Context, userID uuid.UUID, req *SaveMaturityRequest) (*models.UserMaturityScore, error) {
	score := &models.UserMaturityScore{
		UserID:         userID,
		IdeaValidation: req.IdeaValidation,
		UserExperience: req.UserExperience,
		MarketFit:      req.MarketFit,
		Monetization:   req.Monetization,
		ProfileData:    models.JSONB(req.ProfileData),
	}
	if err := s.db.WithContext(ctx).Create(score).Error; err != nil {
		return nil, fmt.Errorf("failed to save maturity scores: %w", err)
	}

	if s.progress != nil {
		if _, err := s.progress.CheckAchievements(ctx, userID); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("Failed to check achievements")
		}
	}
	s.bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: userID})
	return score, nil
}

func (s *UserService) LatestMaturityScores(ctx context.Context, userID uuid.UUID) (*models.UserMaturityScore, error) {
	var score models.UserMaturityScore
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").First(&score).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load maturity scores: %w", err)
	}
	return &score, nil
}

// UnifiedProgress recomputes milestones now and refreshes the stored snapshot.
func (s *UserService) UnifiedProgress(ctx context.Context, userID uuid.UUID) (progress.UnifiedProgress, error) {
	if s.tracker != nil {
		return s.tracker.Recompute(ctx, userID)
	}
	master, scores, game, err := s.source.Inputs(ctx, userID)
	if err != nil {
		return progress.UnifiedProgress{}, err
	}
	return progress.Calculate(master, scores, game), nil
}

// Missions lists the missions currently suggested for the user.
func (s *UserService) Missions(ctx context.Context, userID uuid.UUID) ([]missions.Suggestion, error) {
	st, snap, err := s.source.UserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	var done []string
	if err := s.db.WithContext(ctx).Model(&models.AgentTask{}).
		Where("user_id = ? AND status = ?", userID, models.TaskStatusCompleted).
		Pluck("agent_id", &done).Error; err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	return s.catalog.Discover(st, snap.CompletedMissions(done)), nil
}
