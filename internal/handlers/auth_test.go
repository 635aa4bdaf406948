// internal/handlers/auth_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/database"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/state"
)

type AuthTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	email  string
}

func (suite *AuthTestSuite) SetupSuite() {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		suite.T().Skip("DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	suite.Require().NoError(err)
	suite.Require().NoError(database.RunMigrations(context.Background(), db))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret"},
		Email:       config.EmailConfig{FromName: "Artesanos"},
		Frontend:    config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
	authService := services.NewAuthService(db, cfg,
		services.NewEmailService(cfg),
		services.NewMemoryLimiter(),
		state.NewMemoryStore(),
		services.NewAuthorizationService(db))
	authHandler := NewAuthHandler(authService)

	suite.router = gin.New()
	auth := suite.router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
	suite.email = "handler-" + uuid.NewString()[:8] + "@example.com"
}

func (suite *AuthTestSuite) TearDownSuite() {
	if suite.db == nil {
		return
	}
	suite.db.Exec(`DELETE FROM auth.users WHERE email = ?`, suite.email)
	database.Close(suite.db)
}

func (suite *AuthTestSuite) post(path string, body interface{}) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthTestSuite) TestRegistrationAndLogin() {
	registerData := map[string]interface{}{
		"email":     suite.email,
		"password":  "TestPass123!",
		"full_name": "Ana Tejedora",
	}

	w := suite.post("/auth/register", registerData)
	suite.Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal(true, response["success"])

	w = suite.post("/auth/register", registerData)
	suite.Equal(http.StatusConflict, w.Code)

	// unverified accounts cannot sign in yet
	w = suite.post("/auth/login", map[string]interface{}{
		"email":    suite.email,
		"password": "TestPass123!",
	})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.post("/auth/login", map[string]interface{}{
		"email":    suite.email,
		"password": "WrongPass123!",
	})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *AuthTestSuite) TestRegistrationValidation() {
	w := suite.post("/auth/register", map[string]interface{}{
		"email":     "not-an-email",
		"password":  "short",
		"full_name": "A",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestAuthTestSuite(t *testing.T) {
	suite.Run(t, new(AuthTestSuite))
}
