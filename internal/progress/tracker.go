// internal/progress/tracker.go
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/clock"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/state"
)

// Source loads the calculator inputs for a user.
type Source interface {
	Inputs(ctx context.Context, userID uuid.UUID) (MasterState, MaturityScores, Gamification, error)
}

type TrackerOptions struct {
	Debounce            time.Duration
	AlmostCompleteRatio int
	Clock               clock.Clock
}

// Tracker recomputes unified progress after domain events and publishes
// milestone transitions found by diffing against the previous snapshot.
type Tracker struct {
	source Source
	store  state.Store
	bus    *events.Bus
	opts   TrackerOptions
	clock  clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[uuid.UUID]clock.Timer
	unsubs  []func()
	stopped bool
	wg      sync.WaitGroup
}

func NewTracker(source Source, store state.Store, bus *events.Bus, opts TrackerOptions) *Tracker {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	if opts.AlmostCompleteRatio == 0 {
		opts.AlmostCompleteRatio = 80
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		source: source,
		store:  store,
		bus:    bus,
		opts:   opts,
		clock:  clk,
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[uuid.UUID]clock.Timer),
	}
}

// Start subscribes the tracker to the progress trigger events.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range events.ProgressTriggers {
		t.unsubs = append(t.unsubs, t.bus.Subscribe(name, func(ctx context.Context, e events.Event) {
			if e.UserID != uuid.Nil {
				t.Schedule(e.UserID)
			}
		}))
	}
}

// Schedule debounces a recompute for the user.
func (t *Tracker) Schedule(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	if timer, ok := t.timers[userID]; ok {
		timer.Stop()
	}
	t.timers[userID] = t.clock.AfterFunc(t.opts.Debounce, func() { t.fire(userID) })
}

func (t *Tracker) fire(userID uuid.UUID) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	delete(t.timers, userID)
	t.wg.Add(1)
	t.mu.Unlock()
	defer t.wg.Done()

	if _, err := t.Recompute(t.ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Progress recompute failed")
	}
}

// Recompute calculates progress now, stores the snapshot and publishes the
// resulting events.
func (t *Tracker) Recompute(ctx context.Context, userID uuid.UUID) (UnifiedProgress, error) {
	ms, scores, gamification, err := t.source.Inputs(ctx, userID)
	if err != nil {
		return UnifiedProgress{}, fmt.Errorf("failed to load progress inputs: %w", err)
	}
	next := Calculate(ms, scores, gamification)

	var evs []events.Event
	err = t.store.Update(ctx, userID, func(s *state.Session) error {
		evs = Diff(userID, s.Milestones, next, t.opts.AlmostCompleteRatio)
		s.Milestones = Snapshot(next)
		return nil
	})
	if err != nil {
		return next, fmt.Errorf("failed to store progress snapshot: %w", err)
	}

	for _, e := range evs {
		t.bus.Publish(ctx, e)
	}
	return next, nil
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}

// Snapshot reduces progress to what the next diff needs.
func Snapshot(p UnifiedProgress) map[string]state.MilestoneSnapshot {
	out := make(map[string]state.MilestoneSnapshot, 5)
	for _, m := range p.Milestones.All() {
		out[m.ID] = state.MilestoneSnapshot{Status: string(m.Status), Progress: m.Progress}
	}
	return out
}

// Diff returns the transition events between prev and next, followed by a
// progress.updated event. Without a previous snapshot no transition is
// reported.
func Diff(userID uuid.UUID, prev map[string]state.MilestoneSnapshot, next UnifiedProgress, almost int) []events.Event {
	var out []events.Event

	for _, m := range next.Milestones.All() {
		before, had := prev[m.ID]

		if had && before.Status == string(StatusActive) && m.Status == StatusCompleted {
			out = append(out, events.Event{
				Name:   events.MilestoneCompleted,
				UserID: userID,
				Payload: map[string]interface{}{
					"milestoneId":   m.ID,
					"milestoneName": m.Label,
					"progress":      m.Progress,
				},
			})
		}

		if had && before.Status == string(StatusLocked) && m.Status == StatusActive {
			out = append(out, events.Event{
				Name:   events.MilestoneUnlocked,
				UserID: userID,
				Payload: map[string]interface{}{
					"milestoneId":   m.ID,
					"milestoneName": m.Label,
				},
			})
		}

		if m.Status == StatusActive && m.Progress >= almost && m.Progress < 100 && had && before.Progress < almost {
			out = append(out, events.Event{
				Name:   events.MilestoneAlmostDone,
				UserID: userID,
				Payload: map[string]interface{}{
					"milestoneId":   m.ID,
					"milestoneName": m.Label,
					"tasksLeft":     m.TasksLeft(),
				},
			})
		}
	}

	out = append(out, events.Event{
		Name:   events.ProgressUpdated,
		UserID: userID,
		Payload: map[string]interface{}{
			"totalProgress": next.TotalProgress,
		},
	})
	return out
}
