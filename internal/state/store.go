// internal/state/store.go
package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MilestoneSnapshot is the last observed status of one milestone.
type MilestoneSnapshot struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Session is the per-user engine state kept between requests.
type Session struct {
	UserID           uuid.UUID                    `json:"user_id"`
	Milestones       map[string]MilestoneSnapshot `json:"milestones,omitempty"`
	LastGenerationAt *time.Time                   `json:"last_generation_at,omitempty"`
	GenerationCount  int                          `json:"generation_count"`
	Preferences      map[string]string            `json:"preferences,omitempty"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func NewSession(userID uuid.UUID) *Session {
	return &Session{UserID: userID}
}

// EndView drops what belongs to the signed-in view: preferences and the
// milestone snapshot. The generation cooldown outlives sign-outs.
func (s *Session) EndView() {
	s.Milestones = nil
	s.Preferences = nil
}

// Store persists sessions. Load returns an empty session for unknown users.
type Store interface {
	Load(ctx context.Context, userID uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Update(ctx context.Context, userID uuid.UUID, fn func(*Session) error) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type MemoryStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]*Session), now: time.Now}
}

func (m *MemoryStore) Load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(userID), nil
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.sessions[s.UserID] = clone(s)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, userID uuid.UUID, fn func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.load(userID)
	if err := fn(s); err != nil {
		return err
	}
	s.UpdatedAt = m.now()
	m.sessions[userID] = s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *MemoryStore) load(userID uuid.UUID) *Session {
	if s, ok := m.sessions[userID]; ok {
		return clone(s)
	}
	return NewSession(userID)
}

func clone(s *Session) *Session {
	out := *s
	if s.Milestones != nil {
		out.Milestones = make(map[string]MilestoneSnapshot, len(s.Milestones))
		for k, v := range s.Milestones {
			out.Milestones[k] = v
		}
	}
	if s.Preferences != nil {
		out.Preferences = make(map[string]string, len(s.Preferences))
		for k, v := range s.Preferences {
			out.Preferences[k] = v
		}
	}
	if s.LastGenerationAt != nil {
		t := *s.LastGenerationAt
		out.LastGenerationAt = &t
	}
	return &out
}
