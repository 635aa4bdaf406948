// internal/database/connection.go
package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/models"
)

//go:embed seed/achievements.yaml
var achievementsYAML []byte

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{"host": cfg.Host, "database": cfg.Database}).Info("Database connection established")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// RunMigrations applies pending SQL migrations over the gorm pool, then
// auto-migrates the gorm-owned support tables.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	migrator := NewMigrator(sqlx.NewDb(sqlDB, "postgres"), Migrations())
	if _, err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("failed to run sql migrations: %w", err)
	}

	if err := db.AutoMigrate(SupportModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate support tables: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

// SupportModels lists the tables owned by gorm rather than by SQL migrations.
func SupportModels() []interface{} {
	return []interface{}{
		&models.UserRole{},
		&models.EmailVerificationToken{},
		&models.OTPCode{},
		&models.Notification{},
		&models.ProductModerationHistory{},
		&models.AuditLog{},
		&models.UserProgress{},
		&models.AchievementCatalog{},
		&models.UserAchievement{},
		&models.UserMaturityScore{},
		&models.UserMasterContext{},
		&models.AdminSettings{},
	}
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, read) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_otp_codes_identifier_verified ON otp_codes(identifier, verified)",
		"CREATE INDEX IF NOT EXISTS idx_admin_settings_category ON admin_settings(category, key)",
		"CREATE INDEX IF NOT EXISTS idx_moderation_history_product_created ON product_moderation_history(product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_search ON shop.products USING GIN(to_tsvector('spanish', name || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

type achievementSeed struct {
	ID          string                 `yaml:"id"`
	Title       string                 `yaml:"title"`
	Description string                 `yaml:"description"`
	Icon        string                 `yaml:"icon"`
	Category    string                 `yaml:"category"`
	Order       int                    `yaml:"order"`
	Criteria    map[string]interface{} `yaml:"criteria"`
}

// LoadAchievementCatalog decodes the embedded achievements catalog.
func LoadAchievementCatalog() ([]models.AchievementCatalog, error) {
	var seeds []achievementSeed
	if err := yaml.Unmarshal(achievementsYAML, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse achievements catalog: %w", err)
	}

	out := make([]models.AchievementCatalog, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, models.AchievementCatalog{
			ID:             s.ID,
			Title:          s.Title,
			Description:    s.Description,
			Icon:           s.Icon,
			Category:       s.Category,
			DisplayOrder:   s.Order,
			UnlockCriteria: models.JSONB(s.Criteria),
		})
	}
	return out, nil
}

// SeedInitialData creates the default admin, platform settings, payment
// providers and the achievements catalog. Existing rows are left untouched.
func SeedInitialData(db *gorm.DB, cfg *config.Config) error {
	logrus.Info("Seeding initial data...")

	admin, err := seedAdmin(db)
	if err != nil {
		return err
	}

	defaultSettings := []models.AdminSettings{
		{
			Category:    "general",
			Key:         "platform_name",
			Value:       models.JSONB{"value": "Artisans Marketplace"},
			DataType:    "string",
			Description: "Platform name displayed to users",
		},
		{
			Category:    "payments",
			Key:         "platform_fee_bps",
			Value:       models.JSONB{"value": cfg.Payment.PlatformFeeBps},
			DataType:    "integer",
			Description: "Marketplace commission in basis points",
		},
		{
			Category:    "payments",
			Key:         "default_currency",
			Value:       models.JSONB{"value": cfg.Payment.DefaultCurrency},
			DataType:    "string",
			Description: "Currency used for carts and checkouts",
		},
		{
			Category:    "content",
			Key:         "auto_approve_products",
			Value:       models.JSONB{"value": false},
			DataType:    "boolean",
			Description: "Skip moderation for new products",
		},
		{
			Category:    "content",
			Key:         "max_file_size",
			Value:       models.JSONB{"value": cfg.Storage.MaxUploadMB},
			DataType:    "integer",
			Description: "Maximum file size in MB for uploads",
		},
	}

	for _, setting := range defaultSettings {
		var count int64
		db.Model(&models.AdminSettings{}).Where("category = ? AND key = ?", setting.Category, setting.Key).Count(&count)
		if count > 0 {
			continue
		}
		setting.UpdatedBy = &admin.ID
		if err := db.Create(&setting).Error; err != nil {
			logrus.WithError(err).WithField("setting", setting.Category+"."+setting.Key).Warn("Failed to create setting")
		}
	}

	providers := []models.PaymentProvider{
		{Code: "stripe", DisplayName: "Stripe", IsActive: true, Capabilities: models.JSONB{"cards": true}},
		{Code: "cobre", DisplayName: "Cobre", IsActive: true, Capabilities: models.JSONB{"payouts": true}},
	}
	for _, p := range providers {
		provider := p
		if err := db.Where("code = ?", provider.Code).FirstOrCreate(&provider).Error; err != nil {
			return fmt.Errorf("failed to seed payment provider %s: %w", provider.Code, err)
		}
	}

	catalog, err := LoadAchievementCatalog()
	if err != nil {
		return err
	}
	for _, a := range catalog {
		achievement := a
		if err := db.Where("id = ?", achievement.ID).FirstOrCreate(&achievement).Error; err != nil {
			return fmt.Errorf("failed to seed achievement %s: %w", achievement.ID, err)
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func seedAdmin(db *gorm.DB) (*models.User, error) {
	var role models.UserRole
	err := db.Where("role = ?", models.RoleAdmin).First(&role).Error
	if err == nil {
		return &models.User{ID: role.UserID}, nil
	}

	now := time.Now()
	admin := &models.User{
		Aud:              "authenticated",
		Role:             "authenticated",
		Email:            "admin@artisans.co",
		EmailConfirmedAt: &now,
		RawAppMetaData:   models.JSONB{"provider": "email"},
		RawUserMetaData:  models.JSONB{"full_name": "System Administrator"},
	}
	if err := admin.SetPassword("admin123!@#"); err != nil {
		return nil, fmt.Errorf("failed to set admin password: %w", err)
	}

	err = WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserRole{UserID: admin.ID, Role: models.RoleAdmin}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", admin.Email).Info("Default admin user created")
	return admin, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
