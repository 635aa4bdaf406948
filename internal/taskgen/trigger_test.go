package taskgen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/javajoker/artisans-backend/internal/clock"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockEvolver struct {
	mock.Mock
}

func (m *MockEvolver) EvolveTasks(ctx context.Context, userID uuid.UUID) ([]models.AgentTask, error) {
	args := m.Called(ctx, userID)
	tasks, _ := args.Get(0).([]models.AgentTask)
	return tasks, args.Error(1)
}

func newFakeClock() *clock.Fake {
	return clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func pendingTasks(n int) []models.AgentTask {
	out := make([]models.AgentTask, n)
	for i := range out {
		out[i] = models.AgentTask{Status: models.TaskStatusPending}
	}
	return out
}

func newTestTrigger(evolver Evolver, store state.Store, clk *clock.Fake, onGenerated func(uuid.UUID, []models.AgentTask)) *Trigger {
	opts := DefaultOptions()
	opts.Clock = clk
	opts.OnTasksGenerated = onGenerated
	return NewTrigger(evolver, store, opts)
}

func TestShouldGenerate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts := DefaultOptions()
	completedAt := func(ago time.Duration) *time.Time {
		at := now.Add(-ago)
		return &at
	}

	cases := []struct {
		name  string
		tasks []models.AgentTask
		want  bool
	}{
		{"empty list", nil, true},
		{"two pending", pendingTasks(2), true},
		{"three pending", pendingTasks(3), false},
		{"five pending one recent completion", append(pendingTasks(5),
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(23 * time.Hour)}), false},
		{"five pending three recent completions", append(pendingTasks(5),
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(time.Hour)},
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(2 * time.Hour)},
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(20 * time.Hour)}), true},
		{"old completions ignored", append(pendingTasks(4),
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(25 * time.Hour)},
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(30 * time.Hour)},
			models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: completedAt(48 * time.Hour)}), false},
		{"archived pending not counted", []models.AgentTask{
			{Status: models.TaskStatusPending}, {Status: models.TaskStatusPending},
			{Status: models.TaskStatusPending, IsArchived: true}}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldGenerate(tc.tasks, now, opts))
		})
	}
}

func TestInCooldown(t *testing.T) {
	now := time.Now()
	last := now.Add(-time.Hour)
	assert.True(t, InCooldown(&last, now, 2*time.Hour))

	last = now.Add(-2 * time.Hour)
	assert.False(t, InCooldown(&last, now, 2*time.Hour))
	assert.False(t, InCooldown(nil, now, 2*time.Hour))
}

func TestTwoPendingEmptyCooldownGenerates(t *testing.T) {
	clk := newFakeClock()
	store := state.NewMemoryStore()
	evolver := new(MockEvolver)
	userID := uuid.New()
	generated := []models.AgentTask{{Title: "Sube tu primer producto"}}

	var received []models.AgentTask
	trigger := newTestTrigger(evolver, store, clk, func(id uuid.UUID, tasks []models.AgentTask) {
		assert.Equal(t, userID, id)
		received = tasks
	})
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, userID).Return(generated, nil).Once()

	trigger.Notify(userID, pendingTasks(2))
	clk.Advance(5 * time.Second)

	evolver.AssertExpectations(t)
	assert.Equal(t, generated, received)

	sess, err := store.Load(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, sess.LastGenerationAt)
	assert.Equal(t, 1, sess.GenerationCount)
}

func TestFivePendingOneRecentCompletionDoesNotGenerate(t *testing.T) {
	clk := newFakeClock()
	evolver := new(MockEvolver)
	trigger := newTestTrigger(evolver, state.NewMemoryStore(), clk, nil)
	defer trigger.Stop()

	completed := clk.Now().Add(-23 * time.Hour)
	tasks := append(pendingTasks(5), models.AgentTask{Status: models.TaskStatusCompleted, CompletedAt: &completed})

	trigger.Notify(uuid.New(), tasks)
	clk.Advance(5 * time.Second)

	evolver.AssertNotCalled(t, "EvolveTasks", mock.Anything, mock.Anything)
}

func TestCooldownBlocksSecondGeneration(t *testing.T) {
	clk := newFakeClock()
	evolver := new(MockEvolver)
	userID := uuid.New()
	trigger := newTestTrigger(evolver, state.NewMemoryStore(), clk, nil)
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, userID).Return([]models.AgentTask{}, nil).Twice()

	trigger.Notify(userID, nil)
	clk.Advance(5 * time.Second)

	trigger.Notify(userID, nil)
	clk.Advance(time.Hour)
	evolver.AssertNumberOfCalls(t, "EvolveTasks", 1)

	// Exactly two hours after the first generation the cooldown is over.
	clk.Advance(time.Hour - 5*time.Second)
	trigger.Notify(userID, nil)
	clk.Advance(5 * time.Second)
	evolver.AssertNumberOfCalls(t, "EvolveTasks", 2)
}

func TestDebounceCollapsesRapidChanges(t *testing.T) {
	clk := newFakeClock()
	evolver := new(MockEvolver)
	userID := uuid.New()
	trigger := newTestTrigger(evolver, state.NewMemoryStore(), clk, nil)
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, userID).Return([]models.AgentTask{}, nil)

	for i := 0; i < 10; i++ {
		trigger.Notify(userID, pendingTasks(1))
		clk.Advance(time.Second)
	}
	evolver.AssertNotCalled(t, "EvolveTasks", mock.Anything, mock.Anything)

	clk.Advance(5 * time.Second)
	evolver.AssertNumberOfCalls(t, "EvolveTasks", 1)
}

func TestDebounceIsPerUser(t *testing.T) {
	clk := newFakeClock()
	evolver := new(MockEvolver)
	alice, bob := uuid.New(), uuid.New()
	trigger := newTestTrigger(evolver, state.NewMemoryStore(), clk, nil)
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, mock.Anything).Return([]models.AgentTask{}, nil)

	trigger.Notify(alice, nil)
	trigger.Notify(bob, nil)
	clk.Advance(5 * time.Second)

	evolver.AssertNumberOfCalls(t, "EvolveTasks", 2)
}

func TestEvolveFailureDoesNotStartCooldown(t *testing.T) {
	clk := newFakeClock()
	store := state.NewMemoryStore()
	evolver := new(MockEvolver)
	userID := uuid.New()
	called := false
	trigger := newTestTrigger(evolver, store, clk, func(uuid.UUID, []models.AgentTask) { called = true })
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, userID).Return(nil, errors.New("ai unavailable")).Once()
	evolver.On("EvolveTasks", mock.Anything, userID).Return([]models.AgentTask{}, nil).Once()

	trigger.Notify(userID, nil)
	clk.Advance(5 * time.Second)
	assert.False(t, called)

	sess, err := store.Load(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, sess.LastGenerationAt)

	trigger.Notify(userID, nil)
	clk.Advance(5 * time.Second)
	assert.True(t, called)
	evolver.AssertExpectations(t)
}

// lateClock hands out timers that report they already fired, so Stop never
// prevents a callback. Callbacks run only when the test calls runAll.
type lateClock struct {
	now time.Time
	fns []func()
}

type lateTimer struct{}

func (lateTimer) Stop() bool { return false }

func (c *lateClock) Now() time.Time { return c.now }

func (c *lateClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.fns = append(c.fns, f)
	return lateTimer{}
}

func (c *lateClock) runAll() {
	for _, f := range c.fns {
		f()
	}
}

func TestSupersededTimerDoesNotConsumeLatestList(t *testing.T) {
	clk := &lateClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	evolver := new(MockEvolver)
	userID := uuid.New()
	opts := DefaultOptions()
	opts.Clock = clk
	trigger := NewTrigger(evolver, state.NewMemoryStore(), opts)
	defer trigger.Stop()

	trigger.Notify(userID, pendingTasks(5))
	trigger.Notify(userID, pendingTasks(5))
	require.Len(t, clk.fns, 2)
	clk.runAll()

	evolver.AssertNotCalled(t, "EvolveTasks", mock.Anything, mock.Anything)
}

func TestSupersededTimerStillEvaluatesOnce(t *testing.T) {
	clk := &lateClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	evolver := new(MockEvolver)
	userID := uuid.New()
	opts := DefaultOptions()
	opts.Clock = clk
	trigger := NewTrigger(evolver, state.NewMemoryStore(), opts)
	defer trigger.Stop()

	evolver.On("EvolveTasks", mock.Anything, userID).Return([]models.AgentTask{}, nil).Once()

	trigger.Notify(userID, pendingTasks(1))
	trigger.Notify(userID, pendingTasks(2))
	clk.runAll()

	evolver.AssertNumberOfCalls(t, "EvolveTasks", 1)
}

func TestStopCancelsPendingTimers(t *testing.T) {
	clk := newFakeClock()
	evolver := new(MockEvolver)
	trigger := newTestTrigger(evolver, state.NewMemoryStore(), clk, nil)

	trigger.Notify(uuid.New(), nil)
	trigger.Stop()
	clk.Advance(time.Minute)

	evolver.AssertNotCalled(t, "EvolveTasks", mock.Anything, mock.Anything)
}

func TestRealClockStopDoesNotLeak(t *testing.T) {
	evolver := new(MockEvolver)
	opts := DefaultOptions()
	opts.Debounce = time.Hour
	trigger := NewTrigger(evolver, state.NewMemoryStore(), opts)

	trigger.Notify(uuid.New(), nil)
	trigger.Stop()
}
