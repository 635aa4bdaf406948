package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

func TestTaskXP(t *testing.T) {
	tests := []struct {
		priority int
		want     int
	}{
		{1, missionXPReward + 40},
		{3, missionXPReward + 20},
		{5, missionXPReward},
		{0, missionXPReward + 40},
		{9, missionXPReward},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TaskXP(&models.AgentTask{Priority: tt.priority}), "priority %d", tt.priority)
	}
}
