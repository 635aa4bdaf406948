package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/clients/ai"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/missions"
	"github.com/javajoker/artisans-backend/internal/models"
)

const evolverSystemPrompt = `Eres un mentor de negocios para artesanos colombianos. A partir del estado del artesano y de las misiones sugeridas, propone tareas concretas y alcanzables.

Responde SOLO con un objeto JSON con esta forma:
{"tasks":[{"agent_id":"id de la misión","title":"...","description":"...","priority":1,"milestone_category":"formalization|brand|shop|sales|community","subtasks":["..."]}]}

Usa como agent_id el id de una misión sugerida. Máximo 5 tareas. En español.`

type aiTask struct {
	AgentID           string   `json:"agent_id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Priority          int      `json:"priority"`
	MilestoneCategory string   `json:"milestone_category"`
	Subtasks          []string `json:"subtasks"`
}

// TaskEvolver creates new agent tasks from mission discovery, optionally
// phrased by the AI model. It is the evolver behind the generation trigger.
type TaskEvolver struct {
	db      *gorm.DB
	ai      *ai.Client
	catalog *missions.Catalog
	source  *ProgressSource
	bus     events.Publisher
}

func NewTaskEvolver(db *gorm.DB, aiClient *ai.Client, catalog *missions.Catalog, source *ProgressSource, bus events.Publisher) *TaskEvolver {
	return &TaskEvolver{
		db:      db,
		ai:      aiClient,
		catalog: catalog,
		source:  source,
		bus:     bus,
	}
}

// EvolveTasks discovers missions the user has not started and stores them
// as tasks. Missions that already have a task row are skipped.
func (e *TaskEvolver) EvolveTasks(ctx context.Context, userID uuid.UUID) ([]models.AgentTask, error) {
	state, snap, err := e.source.UserState(ctx, userID)
	if err != nil {
		return nil, err
	}

	var existing []models.AgentTask
	if err := e.db.WithContext(ctx).
		Select("agent_id", "status").
		Where("user_id = ?", userID).
		Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load existing tasks: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	var done []string
	for _, t := range existing {
		taken[t.AgentID] = true
		if t.Status == models.TaskStatusCompleted {
			done = append(done, t.AgentID)
		}
	}

	var suggestions []missions.Suggestion
	for _, s := range e.catalog.Discover(state, snap.CompletedMissions(done)) {
		if !taken[s.ID] {
			suggestions = append(suggestions, s)
		}
	}
	if len(suggestions) == 0 {
		return nil, nil
	}

	candidates := SuggestionTasks(userID, suggestions)
	if e.ai.Enabled() {
		phrased, err := e.phrase(ctx, userID, state, suggestions)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("AI task generation failed, using missions")
		} else if len(phrased) > 0 {
			candidates = phrased
		}
	}

	var created []models.AgentTask
	for i := range candidates {
		task := candidates[i]
		res := e.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&task)
		if res.Error != nil {
			return created, fmt.Errorf("failed to create task %s: %w", task.AgentID, res.Error)
		}
		if res.RowsAffected > 0 {
			created = append(created, task)
		}
	}

	if len(created) > 0 {
		ids := make([]string, 0, len(created))
		for _, t := range created {
			ids = append(ids, t.ID.String())
		}
		e.bus.Publish(ctx, events.Event{
			Name:    events.TasksGenerated,
			UserID:  userID,
			Payload: map[string]interface{}{"count": len(created), "taskIds": ids},
		})
	}
	return created, nil
}

// SuggestionTasks turns discovered missions into pending tasks.
func SuggestionTasks(userID uuid.UUID, suggestions []missions.Suggestion) []models.AgentTask {
	out := make([]models.AgentTask, 0, len(suggestions))
	for _, s := range suggestions {
		category := s.Category
		task := models.AgentTask{
			UserID:      userID,
			AgentID:     s.ID,
			Title:       s.Title,
			Description: s.Description,
			Relevance:   s.Relevance(),
			Priority:    classPriority(s.Priority),
			Status:      models.TaskStatusPending,
			Subtasks:    models.JSONArray{},
			Resources: models.JSONArray{map[string]interface{}{
				"type":        s.Action.Type,
				"destination": s.Action.Destination,
			}},
			Environment: "production",
		}
		if category != "" {
			task.MilestoneCategory = &category
		}
		if s.Deliverable != "" {
			d := s.Deliverable
			task.DeliverableType = &d
		}
		out = append(out, task)
	}
	return out
}

func classPriority(class string) int {
	switch class {
	case missions.PriorityHigh:
		return 1
	case missions.PriorityMedium:
		return 3
	default:
		return 5
	}
}

func (e *TaskEvolver) phrase(ctx context.Context, userID uuid.UUID, state missions.UserState, suggestions []missions.Suggestion) ([]models.AgentTask, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"estado":   state,
		"misiones": suggestions,
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Tasks []aiTask `json:"tasks"`
	}
	if err := e.ai.CompleteJSON(ctx, []ai.Message{
		{Role: "system", Content: evolverSystemPrompt},
		{Role: "user", Content: string(payload)},
	}, &resp); err != nil {
		return nil, err
	}
	return AITasks(userID, resp.Tasks, suggestions), nil
}

// AITasks keeps the model's tasks that refer to a suggested mission, once
// each, and fills gaps from the mission itself.
func AITasks(userID uuid.UUID, tasks []aiTask, suggestions []missions.Suggestion) []models.AgentTask {
	byID := make(map[string]missions.Suggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.ID] = s
	}

	base := SuggestionTasks(userID, suggestions)
	baseByID := make(map[string]models.AgentTask, len(base))
	for _, t := range base {
		baseByID[t.AgentID] = t
	}

	seen := make(map[string]bool)
	var out []models.AgentTask
	for _, t := range tasks {
		id := strings.TrimSpace(t.AgentID)
		if _, ok := byID[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true

		task := baseByID[id]
		if title := strings.TrimSpace(t.Title); title != "" {
			task.Title = title
		}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			task.Description = desc
		}
		if t.Priority > 0 {
			task.Priority = models.ClampPriority(t.Priority)
		}
		switch c := models.MilestoneCategory(t.MilestoneCategory); c {
		case models.MilestoneFormalization, models.MilestoneBrand, models.MilestoneShop, models.MilestoneSales, models.MilestoneCommunity:
			task.MilestoneCategory = &c
		}
		if len(t.Subtasks) > 0 {
			subtasks := make(models.JSONArray, 0, len(t.Subtasks))
			for _, st := range t.Subtasks {
				subtasks = append(subtasks, map[string]interface{}{"title": st, "completed": false})
			}
			task.Subtasks = subtasks
		}
		out = append(out, task)
	}
	return out
}
