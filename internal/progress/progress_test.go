package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/javajoker/artisans-backend/internal/clock"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type summary struct {
	ID       string
	Status   MilestoneStatus
	Progress int
}

func summarize(p UnifiedProgress) []summary {
	var out []summary
	for _, m := range p.Milestones.All() {
		out = append(out, summary{m.ID, m.Status, m.Progress})
	}
	return out
}

func TestCalculateEmptyState(t *testing.T) {
	p := Calculate(MasterState{}, MaturityScores{}, DefaultGamification())

	want := []summary{
		{"formalization", StatusActive, 0},
		{"brand", StatusActive, 0},
		{"shop", StatusActive, 0},
		{"sales", StatusLocked, 0},
		{"community", StatusLocked, 0},
	}
	if diff := cmp.Diff(want, summarize(p)); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, p.TotalProgress)
	assert.Equal(t, Gamification{Level: 1, XP: 0, NextLevelXP: 100}, p.Gamification)

	var next []string
	for _, a := range p.NextActions {
		next = append(next, a.ID)
	}
	assert.Equal(t, []string{"rut_completed", "brand_identity", "shop_created"}, next)
}

func TestCalculateEverythingDone(t *testing.T) {
	s := MasterState{
		NIT: "900123456", BrandLogo: "logo.png", BrandColors: 2, BrandScore: 80,
		HasShop: true, ProductCount: 12, HasHeroSlider: true, HasStory: true,
		HasContactInfo: true, HasSocialLinks: true,
	}
	p := Calculate(s, MaturityScores{IdeaValidation: 70}, Gamification{Level: 3, XP: 40, NextLevelXP: 225})

	want := []summary{
		{"formalization", StatusActive, 100},
		{"brand", StatusCompleted, 100},
		{"shop", StatusCompleted, 100},
		{"sales", StatusLocked, 0},
		{"community", StatusCompleted, 100},
	}
	if diff := cmp.Diff(want, summarize(p)); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 100, p.TotalProgress)
	assert.Empty(t, p.NextActions)
	assert.Equal(t, 70, p.MaturityScores.IdeaValidation)
}

func TestCalculatePartialShop(t *testing.T) {
	p := Calculate(MasterState{HasShop: true, ProductCount: 5}, MaturityScores{}, DefaultGamification())

	assert.Equal(t, 43, p.Milestones.Shop.Progress)
	assert.Equal(t, 3, p.Milestones.Shop.TasksCompleted)
	assert.Equal(t, StatusActive, p.Milestones.Community.Status)
	// (43*50) / (10+20+50+90)
	assert.Equal(t, 13, p.TotalProgress)
}

func TestPendingNITDoesNotCountAsRUT(t *testing.T) {
	p := Calculate(MasterState{NIT: "900", NITPending: true}, MaturityScores{}, DefaultGamification())
	assert.Equal(t, 0, p.Milestones.Formalization.Progress)
}

func TestBrandReviewThreshold(t *testing.T) {
	p := Calculate(MasterState{BrandScore: 59}, MaturityScores{}, DefaultGamification())
	assert.Equal(t, 0, p.Milestones.Brand.Progress)

	p = Calculate(MasterState{BrandScore: 60}, MaturityScores{}, DefaultGamification())
	assert.Equal(t, 50, p.Milestones.Brand.Progress)
}

func TestProductsWithoutShopDoNotCount(t *testing.T) {
	p := Calculate(MasterState{ProductCount: 10, HasStory: true}, MaturityScores{}, DefaultGamification())
	assert.Equal(t, 0, p.Milestones.Shop.Progress)
}

func TestStatusMonotonicAsInputsGrow(t *testing.T) {
	rank := map[MilestoneStatus]int{StatusLocked: 0, StatusActive: 1, StatusCompleted: 2}
	steps := []MasterState{
		{},
		{HasShop: true},
		{HasShop: true, ProductCount: 1, BrandLogo: "l", BrandColors: 1},
		{HasShop: true, ProductCount: 5, BrandLogo: "l", BrandColors: 1, BrandScore: 70, HasStory: true},
		{HasShop: true, ProductCount: 10, BrandLogo: "l", BrandColors: 1, BrandScore: 70, HasStory: true,
			HasContactInfo: true, HasHeroSlider: true, HasSocialLinks: true, NIT: "1"},
	}

	var prev []Milestone
	for _, s := range steps {
		cur := Calculate(s, MaturityScores{}, DefaultGamification()).Milestones.All()
		for i := range prev {
			assert.GreaterOrEqual(t, rank[cur[i].Status], rank[prev[i].Status], cur[i].ID)
		}
		prev = cur
	}
}

func eventNames(evs []events.Event) []string {
	var out []string
	for _, e := range evs {
		out = append(out, e.Name)
	}
	return out
}

func TestDiffWithoutPreviousSnapshot(t *testing.T) {
	userID := uuid.New()
	next := Calculate(MasterState{HasShop: true, ProductCount: 10, HasStory: true, HasContactInfo: true}, MaturityScores{}, DefaultGamification())
	require.Equal(t, 86, next.Milestones.Shop.Progress)

	evs := Diff(userID, nil, next, 80)
	assert.Equal(t, []string{events.ProgressUpdated}, eventNames(evs))
}

func TestDiffAlmostCompleteNeedsPreviousSnapshot(t *testing.T) {
	userID := uuid.New()
	next := Calculate(MasterState{HasShop: true, ProductCount: 10, HasStory: true, HasContactInfo: true}, MaturityScores{}, DefaultGamification())
	prev := Snapshot(next)
	prev["shop"] = state.MilestoneSnapshot{Status: "active", Progress: 60}

	evs := Diff(userID, prev, next, 80)
	assert.Equal(t, []string{events.MilestoneAlmostDone, events.ProgressUpdated}, eventNames(evs))
	assert.Equal(t, 1, evs[0].Payload["tasksLeft"])
	assert.Equal(t, "shop", evs[0].Payload["milestoneId"])
	assert.Equal(t, userID, evs[0].UserID)

	// already past the threshold last time
	evs = Diff(userID, Snapshot(next), next, 80)
	assert.Equal(t, []string{events.ProgressUpdated}, eventNames(evs))
}

func TestDiffTransitions(t *testing.T) {
	userID := uuid.New()
	prev := map[string]state.MilestoneSnapshot{
		"formalization": {Status: "active", Progress: 0},
		"brand":         {Status: "active", Progress: 50},
		"shop":          {Status: "active", Progress: 86},
		"sales":         {Status: "locked", Progress: 0},
		"community":     {Status: "locked", Progress: 0},
	}
	next := Calculate(MasterState{
		BrandLogo: "l", BrandColors: 1, BrandScore: 90,
		HasShop: true, ProductCount: 10, HasStory: true, HasContactInfo: true,
	}, MaturityScores{}, DefaultGamification())

	evs := Diff(userID, prev, next, 80)
	assert.Equal(t, []string{events.MilestoneCompleted, events.MilestoneUnlocked, events.ProgressUpdated}, eventNames(evs))
	assert.Equal(t, "brand", evs[0].Payload["milestoneId"])
	assert.Equal(t, 100, evs[0].Payload["progress"])
	assert.Equal(t, "community", evs[1].Payload["milestoneId"])
}

func TestDiffAlmostCompleteOnlyWhenCrossing(t *testing.T) {
	userID := uuid.New()
	next := Calculate(MasterState{HasShop: true, ProductCount: 10, HasStory: true, HasContactInfo: true}, MaturityScores{}, DefaultGamification())

	crossed := Diff(userID, map[string]state.MilestoneSnapshot{"shop": {Status: "active", Progress: 71}}, next, 80)
	assert.Contains(t, eventNames(crossed), events.MilestoneAlmostDone)

	stayed := Diff(userID, map[string]state.MilestoneSnapshot{"shop": {Status: "active", Progress: 86}}, next, 80)
	assert.NotContains(t, eventNames(stayed), events.MilestoneAlmostDone)
}

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Inputs(ctx context.Context, userID uuid.UUID) (MasterState, MaturityScores, Gamification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(MasterState), MaturityScores{}, DefaultGamification(), args.Error(1)
}

func TestTrackerDebouncesTriggerEvents(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	bus := events.NewBus()
	store := state.NewMemoryStore()
	source := new(MockSource)
	userID := uuid.New()

	tracker := NewTracker(source, store, bus, TrackerOptions{Debounce: 500 * time.Millisecond, Clock: clk})
	tracker.Start()
	defer tracker.Stop()

	var published []string
	bus.Subscribe(events.ProgressUpdated, func(ctx context.Context, e events.Event) { published = append(published, e.Name) })
	bus.Subscribe(events.MilestoneCompleted, func(ctx context.Context, e events.Event) { published = append(published, e.Name) })

	source.On("Inputs", mock.Anything, userID).Return(MasterState{BrandScore: 60}, nil).Once()
	source.On("Inputs", mock.Anything, userID).Return(MasterState{BrandScore: 60, BrandLogo: "l", BrandColors: 1}, nil).Once()

	ctx := context.Background()
	bus.Publish(ctx, events.Event{Name: events.BrandWizardCompleted, UserID: userID})
	clk.Advance(200 * time.Millisecond)
	bus.Publish(ctx, events.Event{Name: events.MasterContextUpdated, UserID: userID})
	clk.Advance(200 * time.Millisecond)
	bus.Publish(ctx, events.Event{Name: events.TaskUpdated, UserID: userID})
	clk.Advance(500 * time.Millisecond)

	source.AssertNumberOfCalls(t, "Inputs", 1)
	assert.Equal(t, []string{events.ProgressUpdated}, published)

	sess, err := store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50, sess.Milestones["brand"].Progress)

	bus.Publish(ctx, events.Event{Name: events.BrandWizardCompleted, UserID: userID})
	clk.Advance(500 * time.Millisecond)

	assert.Equal(t, []string{events.ProgressUpdated, events.MilestoneCompleted, events.ProgressUpdated}, published)
	source.AssertExpectations(t)
}

func TestTrackerIgnoresEventsAfterStop(t *testing.T) {
	clk := clock.NewFake(time.Now())
	bus := events.NewBus()
	source := new(MockSource)
	tracker := NewTracker(source, state.NewMemoryStore(), bus, TrackerOptions{Debounce: time.Second, Clock: clk})
	tracker.Start()
	tracker.Stop()

	bus.Publish(context.Background(), events.Event{Name: events.ShopCreated, UserID: uuid.New()})
	clk.Advance(time.Minute)
	source.AssertNotCalled(t, "Inputs", mock.Anything, mock.Anything)
	assert.Equal(t, 0, bus.HandlerCount(events.ShopCreated))
}
