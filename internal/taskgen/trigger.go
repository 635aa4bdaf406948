// internal/taskgen/trigger.go
package taskgen

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/clock"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/state"
)

// Evolver produces new tasks for a user.
type Evolver interface {
	EvolveTasks(ctx context.Context, userID uuid.UUID) ([]models.AgentTask, error)
}

type Options struct {
	Cooldown          time.Duration
	Debounce          time.Duration
	MinPending        int
	RecentCompletions int
	RecentWindow      time.Duration
	Clock             clock.Clock
	// OnTasksGenerated receives the tasks returned by the evolver.
	OnTasksGenerated func(userID uuid.UUID, tasks []models.AgentTask)
}

func DefaultOptions() Options {
	return Options{
		Cooldown:          2 * time.Hour,
		Debounce:          5 * time.Second,
		MinPending:        3,
		RecentCompletions: 3,
		RecentWindow:      24 * time.Hour,
	}
}

// Trigger decides, after every change to a user's task list, whether new
// tasks should be generated. Changes are debounced per user; a successful
// generation starts a cooldown stored in the state container.
type Trigger struct {
	evolver Evolver
	store   state.Store
	opts    Options
	clock   clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	timers   map[uuid.UUID]clock.Timer
	seqs     map[uuid.UUID]uint64
	nextSeq  uint64
	latest   map[uuid.UUID][]models.AgentTask
	inFlight map[uuid.UUID]bool
	stopped  bool
	wg       sync.WaitGroup
}

func NewTrigger(evolver Evolver, store state.Store, opts Options) *Trigger {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Trigger{
		evolver:  evolver,
		store:    store,
		opts:     opts,
		clock:    clk,
		ctx:      ctx,
		cancel:   cancel,
		timers:   make(map[uuid.UUID]clock.Timer),
		seqs:     make(map[uuid.UUID]uint64),
		latest:   make(map[uuid.UUID][]models.AgentTask),
		inFlight: make(map[uuid.UUID]bool),
	}
}

// Notify records the user's current task list and (re)starts the debounce
// timer. Only the list seen when the latest timer fires is evaluated; a
// superseded timer that could not be stopped in time does nothing.
func (t *Trigger) Notify(userID uuid.UUID, tasks []models.AgentTask) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.latest[userID] = tasks
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
	}
	t.nextSeq++
	seq := t.nextSeq
	t.seqs[userID] = seq
	t.timers[userID] = t.clock.AfterFunc(t.opts.Debounce, func() { t.fire(userID, seq) })
}

func (t *Trigger) fire(userID uuid.UUID, seq uint64) {
	t.mu.Lock()
	if t.stopped || t.seqs[userID] != seq {
		t.mu.Unlock()
		return
	}
	tasks, ok := t.latest[userID]
	delete(t.latest, userID)
	delete(t.timers, userID)
	delete(t.seqs, userID)
	if !ok {
		t.mu.Unlock()
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	if _, err := t.Evaluate(t.ctx, userID, tasks); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Task generation attempt failed")
	}
}

// Evaluate runs one generation attempt immediately. It reports whether the
// evolver was invoked successfully.
func (t *Trigger) Evaluate(ctx context.Context, userID uuid.UUID, tasks []models.AgentTask) (bool, error) {
	t.mu.Lock()
	if t.inFlight[userID] {
		t.mu.Unlock()
		return false, nil
	}
	t.inFlight[userID] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, userID)
		t.mu.Unlock()
	}()

	sess, err := t.store.Load(ctx, userID)
	if err != nil {
		return false, err
	}

	now := t.clock.Now()
	if InCooldown(sess.LastGenerationAt, now, t.opts.Cooldown) {
		return false, nil
	}
	if !ShouldGenerate(tasks, now, t.opts) {
		return false, nil
	}

	generated, err := t.evolver.EvolveTasks(ctx, userID)
	if err != nil {
		return false, err
	}

	err = t.store.Update(ctx, userID, func(s *state.Session) error {
		at := now
		s.LastGenerationAt = &at
		s.GenerationCount++
		return nil
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to record generation cooldown")
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "generated": len(generated)}).Info("Tasks generated")

	if t.opts.OnTasksGenerated != nil {
		t.opts.OnTasksGenerated(userID, generated)
	}
	return true, nil
}

// Stop cancels pending timers and waits for running attempts.
func (t *Trigger) Stop() {
	t.mu.Lock()
	t.stopped = true
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
		delete(t.seqs, id)
	}
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}

// InCooldown reports whether the last generation is more recent than cooldown.
func InCooldown(last *time.Time, now time.Time, cooldown time.Duration) bool {
	return last != nil && now.Sub(*last) < cooldown
}

// ShouldGenerate applies the threshold rule: fewer than MinPending pending
// tasks, or at least RecentCompletions completed within RecentWindow.
func ShouldGenerate(tasks []models.AgentTask, now time.Time, opts Options) bool {
	pending, recent := 0, 0
	for _, task := range tasks {
		if task.IsArchived {
			continue
		}
		if task.Status == models.TaskStatusPending {
			pending++
		}
		if task.CompletedAt != nil && now.Sub(*task.CompletedAt) <= opts.RecentWindow {
			recent++
		}
	}
	return pending < opts.MinPending || recent >= opts.RecentCompletions
}
