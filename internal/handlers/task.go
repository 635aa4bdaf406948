package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/i18n"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	filter := services.TaskFilter{
		Status:    models.TaskStatus(params.Status),
		Milestone: models.MilestoneCategory(c.Query("milestone")),
	}
	filter.Archived, _ = strconv.ParseBool(c.Query("archived"))

	tasks, total, err := h.taskService.List(c.Request.Context(), userID, filter, params)
	if err != nil {
		respondError(c, err)
		return
	}
	if params.Page == 1 && !filter.Archived {
		h.taskService.Touch(c.Request.Context(), userID)
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(tasks, total, params))
}

// GET /tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"task": task})
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CreateTaskRequest
	if !bind(c, &req) {
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"task": task})
}

// PATCH /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateTaskRequest
	if !bind(c, &req) {
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"task": task})
}

// POST /tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Complete(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(utils.GetLangFromContext(c), i18n.KeyTaskCompleted),
		"task":      task,
		"xp_reward": services.TaskXP(task),
	})
}

// DELETE /tasks/:id
func (h *TaskHandler) Archive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Archive(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyTaskArchived),
	})
}
