package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Engine.GenerationCooldown)
	assert.Equal(t, 5*time.Second, cfg.Engine.GenerationDebounce)
	assert.Equal(t, 3, cfg.Engine.MinPendingTasks)
	assert.Equal(t, 3, cfg.Engine.RecentCompletions)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.ProgressDebounce)
	assert.Equal(t, 10*time.Minute, cfg.Engine.OTPTTL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "es", cfg.I18n.DefaultLocale)
}

func TestValidate(t *testing.T) {
	t.Run("default secret rejected in production", func(t *testing.T) {
		cfg := &Config{
			Environment: "production",
			JWT:         JWTConfig{SecretKey: "your-secret-key-change-in-production"},
			Database:    DatabaseConfig{Password: "x"},
			Storage:     StorageConfig{Driver: "local"},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown storage driver", func(t *testing.T) {
		cfg := &Config{Storage: StorageConfig{Driver: "ftp"}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("fee out of range", func(t *testing.T) {
		cfg := &Config{Storage: StorageConfig{Driver: "minio"}, Payment: PaymentConfig{PlatformFeeBps: 20000}}
		assert.Error(t, cfg.Validate())
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "90s")
	t.Setenv("X_SLICE", "a, b,,c")
	t.Setenv("X_BAD_INT", "nope")

	assert.Equal(t, 90*time.Second, getEnvAsDuration("X_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvAsSlice("X_SLICE", nil))
	assert.Equal(t, 7, getEnvAsInt("X_BAD_INT", 7))
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss", Database: "artisans", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/artisans?sslmode=disable", d.URL())
	assert.Contains(t, d.DSN(), "dbname=artisans")
}
