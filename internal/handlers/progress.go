package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type ProgressHandler struct {
	userService     *services.UserService
	progressService *services.UserProgressService
}

func NewProgressHandler(userService *services.UserService, progressService *services.UserProgressService) *ProgressHandler {
	return &ProgressHandler{userService: userService, progressService: progressService}
}

// GET /progress/unified
func (h *ProgressHandler) Unified(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	up, err := h.userService.UnifiedProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, up)
}

// GET /progress
func (h *ProgressHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	p, err := h.progressService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, p)
}

// POST /progress
func (h *ProgressHandler) Add(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.AddProgressRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.progressService.AddProgress(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, res)
}

// GET /progress/achievements
func (h *ProgressHandler) Achievements(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	unlocked, err := h.progressService.Achievements(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	catalog, err := h.progressService.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"unlocked": unlocked, "catalog": catalog})
}

// GET /progress/missions
func (h *ProgressHandler) Missions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.userService.Missions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"missions": list})
}
