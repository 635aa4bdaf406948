package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/clock"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/state"
	"github.com/javajoker/artisans-backend/internal/taskgen"
)

type countingEvolver struct {
	calls int
}

func (e *countingEvolver) EvolveTasks(ctx context.Context, userID uuid.UUID) ([]models.AgentTask, error) {
	e.calls++
	return nil, nil
}

func TestLogoutKeepsGenerationCooldown(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := state.NewMemoryStore()

	generatedAt := clk.Now().Add(-30 * time.Minute)
	require.NoError(t, store.Save(ctx, &state.Session{
		UserID:           testUserID,
		LastGenerationAt: &generatedAt,
		GenerationCount:  1,
		Milestones:       map[string]state.MilestoneSnapshot{"brand": {Status: "active", Progress: 40}},
	}))

	svc := NewAuthService(nil, testConfig(), nil, NewMemoryLimiter(), store, nil)
	require.NoError(t, svc.Logout(ctx, testUserID))

	sess, err := store.Load(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, sess.LastGenerationAt)
	assert.Equal(t, 1, sess.GenerationCount)
	assert.Empty(t, sess.Milestones)

	evolver := &countingEvolver{}
	opts := taskgen.DefaultOptions()
	opts.Clock = clk
	trigger := taskgen.NewTrigger(evolver, store, opts)
	defer trigger.Stop()

	generated, err := trigger.Evaluate(ctx, testUserID, nil)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Zero(t, evolver.calls)

	clk.Advance(90 * time.Minute)
	generated, err = trigger.Evaluate(ctx, testUserID, nil)
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Equal(t, 1, evolver.calls)
}
