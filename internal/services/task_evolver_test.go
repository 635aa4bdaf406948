package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/artisans-backend/internal/missions"
	"github.com/javajoker/artisans-backend/internal/models"
)

func sampleSuggestions() []missions.Suggestion {
	return []missions.Suggestion{
		{
			ID:          "create_shop",
			Title:       "Crea tu tienda",
			Description: "Abre tu tienda digital",
			Priority:    missions.PriorityHigh,
			Category:    models.MilestoneShop,
			Action:      missions.Action{Type: "navigate", Destination: "/crear-tienda"},
		},
		{
			ID:          "complete_rut",
			Title:       "Registra tu RUT",
			Priority:    missions.PriorityLow,
			Category:    models.MilestoneFormalization,
			Deliverable: "rut",
			Action:      missions.Action{Type: "navigate", Destination: "/formalizacion"},
		},
	}
}

func TestSuggestionTasks(t *testing.T) {
	tasks := SuggestionTasks(testUserID, sampleSuggestions())
	require.Len(t, tasks, 2)

	shop := tasks[0]
	assert.Equal(t, testUserID, shop.UserID)
	assert.Equal(t, "create_shop", shop.AgentID)
	assert.Equal(t, models.TaskStatusPending, shop.Status)
	assert.Equal(t, models.RelevanceHigh, shop.Relevance)
	assert.Equal(t, 1, shop.Priority)
	require.NotNil(t, shop.MilestoneCategory)
	assert.Equal(t, models.MilestoneShop, *shop.MilestoneCategory)
	assert.Nil(t, shop.DeliverableType)
	want := models.JSONArray{map[string]interface{}{"type": "navigate", "destination": "/crear-tienda"}}
	if diff := cmp.Diff(want, shop.Resources); diff != "" {
		t.Errorf("resources mismatch (-want +got):\n%s", diff)
	}

	rut := tasks[1]
	assert.Equal(t, 5, rut.Priority)
	assert.Equal(t, models.RelevanceLow, rut.Relevance)
	require.NotNil(t, rut.DeliverableType)
	assert.Equal(t, "rut", *rut.DeliverableType)
}

func TestAITasksKeepsOnlySuggestedMissions(t *testing.T) {
	out := AITasks(testUserID, []aiTask{
		{AgentID: "complete_rut", Title: "Formaliza tu negocio", Priority: 2, MilestoneCategory: "formalization", Subtasks: []string{"Reúne tu cédula"}},
		{AgentID: "invented_mission", Title: "No existe"},
		{AgentID: "complete_rut", Title: "Duplicado"},
		{AgentID: " create_shop ", MilestoneCategory: "galaxy", Priority: 9},
	}, sampleSuggestions())

	require.Len(t, out, 2)

	assert.Equal(t, "complete_rut", out[0].AgentID)
	assert.Equal(t, "Formaliza tu negocio", out[0].Title)
	assert.Equal(t, 2, out[0].Priority)
	assert.Equal(t, models.MilestoneFormalization, *out[0].MilestoneCategory)
	assert.Equal(t, models.JSONArray{map[string]interface{}{"title": "Reúne tu cédula", "completed": false}}, out[0].Subtasks)

	// empty title and bad category fall back to the mission
	assert.Equal(t, "create_shop", out[1].AgentID)
	assert.Equal(t, "Crea tu tienda", out[1].Title)
	assert.Equal(t, 5, out[1].Priority)
	assert.Equal(t, models.MilestoneShop, *out[1].MilestoneCategory)
}
