package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/utils"
)

type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// POST /ai/refine
func (h *ContentHandler) Refine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.RefineRequest
	if !bind(c, &req) {
		return
	}

	resp, err := h.contentService.Refine(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, resp)
}
