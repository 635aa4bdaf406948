package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/utils"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskExists   = errors.New("task already exists for this agent")
	ErrTaskArchived = errors.New("task is archived")
)

// TaskListNotifier is told about every change to a user's task list.
type TaskListNotifier interface {
	Notify(userID uuid.UUID, tasks []models.AgentTask)
}

type TaskFilter struct {
	Status    models.TaskStatus
	Milestone models.MilestoneCategory
	Archived  bool
}

type CreateTaskRequest struct {
	AgentID           string                    `json:"agent_id" validate:"required,max=100"`
	Title             string                    `json:"title" validate:"required,max=255"`
	Description       string                    `json:"description,omitempty"`
	Relevance         models.TaskRelevance      `json:"relevance,omitempty" validate:"omitempty,oneof=low medium high"`
	Priority          int                       `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	DueDate           *time.Time                `json:"due_date,omitempty"`
	MilestoneCategory *models.MilestoneCategory `json:"milestone_category,omitempty" validate:"omitempty,oneof=formalization brand shop sales community"`
	DeliverableType   *string                   `json:"deliverable_type,omitempty"`
	Subtasks          []interface{}             `json:"subtasks,omitempty"`
	Resources         []interface{}             `json:"resources,omitempty"`
}

type UpdateTaskRequest struct {
	ProgressPercentage *int                   `json:"progress_percentage,omitempty" validate:"omitempty,min=0,max=100"`
	Status             *models.TaskStatus     `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Subtasks           []interface{}          `json:"subtasks,omitempty"`
	Notes              *string                `json:"notes,omitempty"`
	StepsCompleted     map[string]interface{} `json:"steps_completed,omitempty"`
	TimeSpent          *int                   `json:"time_spent,omitempty" validate:"omitempty,min=0"`
	Priority           *int                   `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	DueDate            *time.Time             `json:"due_date,omitempty"`
}

type TaskService struct {
	db       *gorm.DB
	bus      events.Publisher
	progress *UserProgressService
	notifier TaskListNotifier
	now      func() time.Time
}

func NewTaskService(db *gorm.DB, bus events.Publisher, progress *UserProgressService, notifier TaskListNotifier) *TaskService {
	return &TaskService{
		db:       db,
		bus:      bus,
		progress: progress,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, filter TaskFilter, params utils.PaginationParams) ([]models.AgentTask, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AgentTask{}).
		Where("user_id = ? AND is_archived = ?", userID, filter.Archived)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Milestone != "" {
		query = query.Where("milestone_category = ?", filter.Milestone)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query = query.Order("priority ASC")
	query = utils.ApplySort(query, params, "created_at", "updated_at", "due_date", "progress_percentage")
	query = utils.ApplyPagination(query, params)

	var tasks []models.AgentTask
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id uuid.UUID) (*models.AgentTask, error) {
	var task models.AgentTask
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &task, nil
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, req *CreateTaskRequest) (*models.AgentTask, error) {
	relevance := req.Relevance
	if relevance == "" {
		relevance = models.RelevanceMedium
	}
	priority := req.Priority
	if priority == 0 {
		priority = 3
	}

	task := &models.AgentTask{
		UserID:            userID,
		AgentID:           strings.TrimSpace(req.AgentID),
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		Relevance:         relevance,
		Priority:          models.ClampPriority(priority),
		Status:            models.TaskStatusPending,
		DueDate:           req.DueDate,
		MilestoneCategory: req.MilestoneCategory,
		DeliverableType:   req.DeliverableType,
		Subtasks:          models.JSONArray(req.Subtasks),
		Resources:         models.JSONArray(req.Resources),
		Environment:       "production",
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(task)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to create task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTaskExists
	}

	s.changed(ctx, userID, task, events.TaskUpdated)
	return task, nil
}

// Update changes progress, status and working notes. Setting status to
// completed goes through Complete so xp is awarded once.
func (s *TaskService) Update(ctx context.Context, userID, id uuid.UUID, req *UpdateTaskRequest) (*models.AgentTask, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if task.IsArchived {
		return nil, ErrTaskArchived
	}

	updates := make(map[string]interface{})
	if req.ProgressPercentage != nil {
		updates["progress_percentage"] = *req.ProgressPercentage
	}
	if req.Subtasks != nil {
		updates["subtasks"] = models.JSONArray(req.Subtasks)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.StepsCompleted != nil {
		updates["steps_completed"] = models.JSONB(req.StepsCompleted)
	}
	if req.TimeSpent != nil {
		updates["time_spent"] = *req.TimeSpent
	}
	if req.Priority != nil {
		updates["priority"] = models.ClampPriority(*req.Priority)
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	completing := false
	if req.Status != nil {
		switch {
		case *req.Status == models.TaskStatusCompleted:
			completing = task.Status != models.TaskStatusCompleted
		case *req.Status != task.Status:
			updates["status"] = *req.Status
			if task.Status == models.TaskStatusCompleted {
				updates["completed_at"] = nil
			}
		}
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}
	if completing {
		return s.Complete(ctx, userID, id)
	}

	task, err = s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, userID, task, events.TaskUpdated)
	return task, nil
}

// Complete marks the task done and awards mission xp. Completing an already
// completed task is a no-op.
func (s *TaskService) Complete(ctx context.Context, userID, id uuid.UUID) (*models.AgentTask, error) {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if task.IsArchived {
		return nil, ErrTaskArchived
	}
	if task.Status == models.TaskStatusCompleted {
		return task, nil
	}

	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.AgentTask{}).
		Where("id = ? AND status <> ?", task.ID, models.TaskStatusCompleted).
		Updates(map[string]interface{}{
			"status":              models.TaskStatusCompleted,
			"completed_at":        now,
			"progress_percentage": 100,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to complete task: %w", res.Error)
	}
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &now
	task.ProgressPercentage = 100
	if res.RowsAffected == 0 {
		return task, nil
	}

	if s.progress != nil {
		if _, err := s.progress.AddProgress(ctx, userID, AddProgressRequest{
			XPGained:         TaskXP(task),
			MissionCompleted: true,
			TimeSpent:        task.TimeSpent,
		}); err != nil {
			logrus.WithError(err).WithField("task_id", task.ID).Warn("Failed to award task xp")
		}
	}

	s.bus.Publish(ctx, events.Event{
		Name:    events.TaskCompleted,
		UserID:  userID,
		Payload: map[string]interface{}{"taskId": task.ID.String(), "agentId": task.AgentID},
	})
	s.changed(ctx, userID, task, events.TaskUpdated)
	return task, nil
}

// TaskXP is the reward for completing a task; higher priority pays more.
func TaskXP(task *models.AgentTask) int {
	return missionXPReward + (5-models.ClampPriority(task.Priority))*10
}

// Archive hides a task. Tasks are never deleted.
func (s *TaskService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	task, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if task.IsArchived {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(task).Update("is_archived", true).Error; err != nil {
		return fmt.Errorf("failed to archive task: %w", err)
	}
	task.IsArchived = true
	s.changed(ctx, userID, task, events.TaskUpdated)
	return nil
}

// Active returns the user's non-archived tasks, which is what the
// generation trigger evaluates.
func (s *TaskService) Active(ctx context.Context, userID uuid.UUID) ([]models.AgentTask, error) {
	var tasks []models.AgentTask
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", userID, false).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return tasks, nil
}

// Touch hands the current task list to the generation trigger without a
// change, e.g. when the user opens the task board.
func (s *TaskService) Touch(ctx context.Context, userID uuid.UUID) {
	s.notify(ctx, userID)
}

func (s *TaskService) changed(ctx context.Context, userID uuid.UUID, task *models.AgentTask, name string) {
	s.bus.Publish(ctx, events.Event{
		Name:    name,
		UserID:  userID,
		Payload: map[string]interface{}{"taskId": task.ID.String(), "status": string(task.Status)},
	})
	s.notify(ctx, userID)
}

func (s *TaskService) notify(ctx context.Context, userID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	tasks, err := s.Active(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load tasks for generation trigger")
		return
	}
	s.notifier.Notify(userID, tasks)
}
