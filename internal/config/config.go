// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Payment     PaymentConfig
	Cobre       CobreConfig
	AI          AIConfig
	Email       EmailConfig
	I18n        I18nConfig
	Frontend    FrontendConfig
	Engine      EngineConfig
	Tracing     TracingConfig
}

type FrontendConfig struct {
	BaseURL        string
	MarketplaceURL string
	AllowedOrigins []string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
	AutoMigrate  bool
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
	StateTTL time.Duration
}

// StorageConfig selects the object storage driver for product and shop images.
// Driver is one of "s3", "minio" or "local".
type StorageConfig struct {
	Driver        string
	MaxUploadMB   int
	LocalPath     string
	PublicBaseURL string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Bucket           string
	CloudFrontURL      string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

type PaymentConfig struct {
	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string
	PlatformFeeBps       int
	DefaultCurrency      string
}

type CobreConfig struct {
	BaseURL   string
	UserID    string
	Secret    string
	BalanceID string
	Timeout   time.Duration
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLocale string
}

// EngineConfig holds the timings of the task generation trigger and the
// progress tracker.
type EngineConfig struct {
	GenerationCooldown  time.Duration
	GenerationDebounce  time.Duration
	MinPendingTasks     int
	RecentCompletions   int
	RecentWindow        time.Duration
	ProgressDebounce    time.Duration
	VerificationTTL     time.Duration
	ResendCooldown      time.Duration
	OTPTTL              time.Duration
	OTPCooldown         time.Duration
	AlmostCompleteRatio int
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	SampleRatio float64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "artisans"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),   // 24 hours
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168), // 7 days
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_EVENTS_CHANNEL", "artisans:events"),
			StateTTL: getEnvAsDuration("REDIS_STATE_TTL", 7*24*time.Hour),
		},
		Storage: StorageConfig{
			Driver:             getEnv("STORAGE_DRIVER", "local"),
			MaxUploadMB:        getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 10),
			LocalPath:          getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			PublicBaseURL:      getEnv("STORAGE_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:           getEnv("AWS_S3_BUCKET", "artisans-assets"),
			CloudFrontURL:      getEnv("AWS_CLOUDFRONT_URL", ""),
			MinIOEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
			MinIOAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			MinIOSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			MinIOBucket:        getEnv("MINIO_BUCKET", "artisans-assets"),
			MinIOUseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
		},
		Payment: PaymentConfig{
			StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PlatformFeeBps:       getEnvAsInt("PLATFORM_FEE_BPS", 1000),
			DefaultCurrency:      getEnv("DEFAULT_CURRENCY", "COP"),
		},
		Cobre: CobreConfig{
			BaseURL:   getEnv("COBRE_BASE_URL", "https://api.cobre.co"),
			UserID:    getEnv("COBRE_USER_ID", ""),
			Secret:    getEnv("COBRE_SECRET", ""),
			BalanceID: getEnv("COBRE_BALANCE_ID", ""),
			Timeout:   getEnvAsDuration("COBRE_TIMEOUT", 15*time.Second),
		},
		AI: AIConfig{
			BaseURL:     getEnv("AI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("AI_API_KEY", ""),
			Model:       getEnv("AI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("AI_MAX_TOKENS", 500),
			Temperature: getEnvAsFloat("AI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 60*time.Second),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@artisans.co"),
			FromName:     getEnv("FROM_NAME", "Artisans"),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "es"),
		},
		Frontend: FrontendConfig{
			BaseURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
			MarketplaceURL: getEnv("MARKETPLACE_URL", "http://localhost:5174"),
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"}),
		},
		Engine: EngineConfig{
			GenerationCooldown:  getEnvAsDuration("TASKGEN_COOLDOWN", 2*time.Hour),
			GenerationDebounce:  getEnvAsDuration("TASKGEN_DEBOUNCE", 5*time.Second),
			MinPendingTasks:     getEnvAsInt("TASKGEN_MIN_PENDING", 3),
			RecentCompletions:   getEnvAsInt("TASKGEN_RECENT_COMPLETIONS", 3),
			RecentWindow:        getEnvAsDuration("TASKGEN_RECENT_WINDOW", 24*time.Hour),
			ProgressDebounce:    getEnvAsDuration("PROGRESS_DEBOUNCE", 500*time.Millisecond),
			VerificationTTL:     getEnvAsDuration("VERIFICATION_TTL", 24*time.Hour),
			ResendCooldown:      getEnvAsDuration("VERIFICATION_RESEND_COOLDOWN", 60*time.Second),
			OTPTTL:              getEnvAsDuration("OTP_TTL", 10*time.Minute),
			OTPCooldown:         getEnvAsDuration("OTP_COOLDOWN", 60*time.Second),
			AlmostCompleteRatio: getEnvAsInt("PROGRESS_ALMOST_COMPLETE", 80),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "artisans-backend"),
			SampleRatio: getEnvAsFloat("TRACING_SAMPLE_RATIO", 0.1),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	switch c.Storage.Driver {
	case "s3", "minio", "local":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Payment.PlatformFeeBps < 0 || c.Payment.PlatformFeeBps > 10000 {
		return fmt.Errorf("platform fee must be between 0 and 10000 bps")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
