// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

// RoleChecker answers whether a user holds one of the given roles.
type RoleChecker interface {
	HasRole(ctx context.Context, userID uuid.UUID, roles ...models.Role) (bool, error)
}

func bearerClaims(c *gin.Context) (*utils.JWTClaims, bool, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, false, false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, true, false
	}

	claims, err := utils.ValidateJWT(parts[1])
	if err != nil {
		return nil, true, false
	}
	return claims, true, true
}

func setClaims(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("is_anonymous", claims.IsAnonymous)
}

func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		claims, present, valid := bearerClaims(c)
		if !present {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}
		if !valid {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// RoleRequired must run after AuthRequired. Admins pass every check.
func RoleRequired(checker RoleChecker, roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := utils.GetUserIDFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		allowed, err := checker.HasRole(c.Request.Context(), userID, roles...)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Error("Role lookup failed")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}
		if !allowed {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _, valid := bearerClaims(c); valid {
			setClaims(c, claims)
		}
		c.Next()
	}
}
