package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestMergeMissionIDs(t *testing.T) {
	got := mergeMissionIDs([]string{"create_shop", "complete_rut"}, []string{" complete_rut", "", "first_product"})
	assert.Equal(t, models.JSONArray{"create_shop", "complete_rut", "first_product"}, got)

	assert.Empty(t, mergeMissionIDs(nil, nil))
}
