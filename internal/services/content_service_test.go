package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/clients/ai"
	"github.com/javajoker/artisans-backend/internal/config"
)

func TestRefineWithoutAI(t *testing.T) {
	svc := NewContentService(ai.NewClient(config.AIConfig{}))
	_, err := svc.Refine(context.Background(), testUserID, &RefineRequest{Context: ai.ContextShopName, UserPrompt: "mejóralo"})
	assert.True(t, errors.Is(err, ErrAIUnavailable))
}

func TestRefineTrimsModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "  Telar Andino  "}},
			},
		})
	}))
	defer srv.Close()

	svc := NewContentService(ai.NewClient(config.AIConfig{BaseURL: srv.URL, APIKey: "test", Model: "test-model"}))
	out, err := svc.Refine(context.Background(), testUserID, &RefineRequest{
		Context:      ai.ContextShopName,
		CurrentValue: "mi tienda se llama telar andino",
		UserPrompt:   "hazlo más corto",
	})
	require.NoError(t, err)
	assert.Equal(t, "Telar Andino", out.RefinedContent)
}
