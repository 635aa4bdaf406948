package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/events"
)

// recordingBus captures published events.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Name)
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Storage:     config.StorageConfig{MaxUploadMB: 5, PublicBaseURL: "http://localhost:8080/uploads"},
		Payment:     config.PaymentConfig{PlatformFeeBps: 1000, DefaultCurrency: "COP"},
		Email:       config.EmailConfig{FromName: "Artesanos"},
		Frontend:    config.FrontendConfig{BaseURL: "http://localhost:3000"},
	}
}

func ptr[T any](v T) *T { return &v }

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
