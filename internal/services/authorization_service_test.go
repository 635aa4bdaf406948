package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		name   string
		held   []models.Role
		wanted []models.Role
		want   bool
	}{
		{"no roles", nil, []models.Role{models.RoleModerator}, false},
		{"exact match", []models.Role{models.RoleModerator}, []models.Role{models.RoleModerator}, true},
		{"admin passes moderator", []models.Role{models.RoleAdmin}, []models.Role{models.RoleModerator}, true},
		{"moderator is not admin", []models.Role{models.RoleModerator}, []models.Role{models.RoleAdmin}, false},
		{"any of wanted", []models.Role{models.RoleShopOwner}, []models.Role{models.RoleAdmin, models.RoleShopOwner}, true},
		{"admin does not imply shop owner", []models.Role{models.RoleAdmin}, []models.Role{models.RoleShopOwner}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleSatisfies(tt.held, tt.wanted...))
		})
	}
}
