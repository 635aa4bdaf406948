package router

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/artisans-backend/internal/models"
)

type scheduled struct {
	users []uuid.UUID
}

func (s *scheduled) Schedule(userID uuid.UUID) {
	s.users = append(s.users, userID)
}

func TestRefreshProgressAfterGeneration(t *testing.T) {
	tracker := &scheduled{}
	onGenerated := refreshProgress(tracker)
	userID := uuid.New()

	onGenerated(userID, nil)
	assert.Empty(t, tracker.users)

	onGenerated(userID, []models.AgentTask{{Title: "Sube tu primer producto"}})
	assert.Equal(t, []uuid.UUID{userID}, tracker.users)
}
