package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// GET /moderation/products?status=pending_moderation
func (h *ModerationHandler) Queue(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	queue, err := h.moderationService.Queue(c.Request.Context(), models.ModerationStatus(params.Status), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(queue.Products, queue.Total, params)
	utils.SetPaginationHeaders(c, result)
	utils.SuccessResponseWithMeta(c, queue.Products, gin.H{
		"counts": queue.Counts,
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

// GET /moderation/products/:id/history
func (h *ModerationHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.moderationService.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"history": history})
}

// POST /moderation/products/:id
func (h *ModerationHandler) Moderate(c *gin.Context) {
	moderatorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.ModerateRequest
	if !bind(c, &req) {
		return
	}

	product, err := h.moderationService.Moderate(c.Request.Context(), moderatorID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"product": product})
}
