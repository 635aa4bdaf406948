package state

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	newStore func() Store
	cleanup  func()
}

func (s *StoreTestSuite) TearDownSuite() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func (s *StoreTestSuite) TestLoadUnknownUserReturnsEmptySession() {
	store := s.newStore()
	userID := uuid.New()

	sess, err := store.Load(context.Background(), userID)
	s.Require().NoError(err)
	s.Equal(userID, sess.UserID)
	s.Nil(sess.LastGenerationAt)
	s.Zero(sess.GenerationCount)
}

func (s *StoreTestSuite) TestUpdatePersists() {
	store := s.newStore()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	err := store.Update(ctx, userID, func(sess *Session) error {
		sess.LastGenerationAt = &now
		sess.GenerationCount++
		sess.Milestones = map[string]MilestoneSnapshot{"brand": {Status: "active", Progress: 50}}
		return nil
	})
	s.Require().NoError(err)

	sess, err := store.Load(ctx, userID)
	s.Require().NoError(err)
	s.Require().NotNil(sess.LastGenerationAt)
	s.True(now.Equal(*sess.LastGenerationAt))
	s.Equal(1, sess.GenerationCount)
	s.Equal(50, sess.Milestones["brand"].Progress)
}

func (s *StoreTestSuite) TestUpdateErrorDiscardsChanges() {
	store := s.newStore()
	ctx := context.Background()
	userID := uuid.New()

	err := store.Update(ctx, userID, func(sess *Session) error {
		sess.GenerationCount = 9
		return errors.New("nope")
	})
	s.Error(err)

	sess, err := store.Load(ctx, userID)
	s.Require().NoError(err)
	s.Zero(sess.GenerationCount)
}

func (s *StoreTestSuite) TestConcurrentUpdates() {
	store := s.newStore()
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, userID, func(sess *Session) error {
				sess.GenerationCount++
				return nil
			})
		}()
	}
	wg.Wait()

	sess, err := store.Load(ctx, userID)
	s.Require().NoError(err)
	s.Equal(5, sess.GenerationCount)
}

func (s *StoreTestSuite) TestClear() {
	store := s.newStore()
	ctx := context.Background()
	userID := uuid.New()

	s.Require().NoError(store.Save(ctx, &Session{UserID: userID, GenerationCount: 3}))
	s.Require().NoError(store.Clear(ctx, userID))

	sess, err := store.Load(ctx, userID)
	s.Require().NoError(err)
	s.Zero(sess.GenerationCount)
}

func (s *StoreTestSuite) TestEndViewKeepsCooldown() {
	store := s.newStore()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)

	s.Require().NoError(store.Save(ctx, &Session{
		UserID:           userID,
		LastGenerationAt: &now,
		GenerationCount:  2,
		Milestones:       map[string]MilestoneSnapshot{"shop": {Status: "active", Progress: 80}},
		Preferences:      map[string]string{"lang": "es"},
	}))
	s.Require().NoError(store.Update(ctx, userID, func(sess *Session) error {
		sess.EndView()
		return nil
	}))

	sess, err := store.Load(ctx, userID)
	s.Require().NoError(err)
	s.Require().NotNil(sess.LastGenerationAt)
	s.True(now.Equal(*sess.LastGenerationAt))
	s.Equal(2, sess.GenerationCount)
	s.Empty(sess.Milestones)
	s.Empty(sess.Preferences)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func() Store { return NewMemoryStore() }})
}

func TestRedisStoreSuite(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	suite.Run(t, &StoreTestSuite{
		newStore: func() Store { return NewRedisStore(rdb, time.Minute) },
		cleanup:  func() { _ = rdb.Close() },
	})
}
