package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.AIConfig{
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-4o-mini",
		MaxTokens:   500,
		Temperature: 0.7,
		Timeout:     2 * time.Second,
	})
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestRefineSendsContextPrompt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		assert.Nil(t, req.ResponseFormat)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, SystemPrompt(ContextShopName), req.Messages[0].Content)
		assert.Contains(t, req.Messages[1].Content, `"vinilos macondo"`)

		reply(w, "  Vinilos Macondo \n")
	})

	out, err := client.Refine(context.Background(), ContextShopName, "vinilos macondo", "corrige", RefineExtra{})
	require.NoError(t, err)
	assert.Equal(t, "Vinilos Macondo", out)
}

func TestCompleteJSONStripsFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		reply(w, "```json\n{\"tasks\":[{\"title\":\"Sube tu primer producto\"}]}\n```")
	})

	var out struct {
		Tasks []struct {
			Title string `json:"title"`
		} `json:"tasks"`
	}
	require.NoError(t, client.CompleteJSON(context.Background(), []Message{{Role: "user", Content: "x"}}, &out))
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "Sube tu primer producto", out.Tasks[0].Title)
}

func TestUpstreamErrorIsReturned(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "x"}})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
}

func TestDisabledClient(t *testing.T) {
	client := NewClient(config.AIConfig{BaseURL: "https://api.openai.com/v1"})
	assert.False(t, client.Enabled())

	_, err := client.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUnknownContextUsesDefaultPrompt(t *testing.T) {
	assert.Equal(t, defaultRefinePrompt, SystemPrompt("banner_title"))
	msgs := RefineMessages(ContextProductDescription, "bolso", "mejora", RefineExtra{ProductName: "Mochila Wayuu", HasImages: true, ImageCount: 3})
	assert.Contains(t, msgs[1].Content, "Nombre del producto: Mochila Wayuu")
	assert.Contains(t, msgs[1].Content, "El producto tiene 3 imagen(es)")
}
